package repository

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gigchat/internal/model"

	"github.com/lib/pq"
)

// GenderAny is the stored sentinel for postings with no gender preference.
const GenderAny = "무관"

// normalizedLocationExpr rewrites the stored location with the same
// administrative-suffix simplification that NormalizeRegion applies to the
// query value, so both sides compare at plain 시/도 granularity.
const normalizedLocationExpr = `REGEXP_REPLACE(REGEXP_REPLACE(REGEXP_REPLACE(REGEXP_REPLACE(location, '특별자치도', '도', 'g'), '특별자치시', '시', 'g'), '특별시', '시', 'g'), '광역시', '시', 'g')`

// regionTokenRe captures the leading <name>+{시|군|도} token of a normalized
// region string, e.g. "서울시 강남구" -> "서울시".
var regionTokenRe = regexp.MustCompile(`^(.+[시군도])(\s|$)`)

// NormalizeRegion simplifies administrative-division suffixes:
// 서울특별시 -> 서울시, 광주광역시 -> 광주시, 제주특별자치도 -> 제주도,
// 세종특별자치시 -> 세종시.
func NormalizeRegion(region string) string {
	region = strings.ReplaceAll(region, "특별자치도", "도")
	region = strings.ReplaceAll(region, "특별자치시", "시")
	region = strings.ReplaceAll(region, "특별시", "시")
	region = strings.ReplaceAll(region, "광역시", "시")
	return region
}

// regionPattern derives the LIKE prefix for a place condition. Users tend to
// name neighborhoods and landmarks more specific than postings store, so
// matching stops at city/county/province granularity. Jeju is special-cased
// to its bare prefix.
func regionPattern(place string) string {
	place = NormalizeRegion(place)
	if strings.HasPrefix(place, "제주") {
		return "제주"
	}
	if m := regionTokenRe.FindStringSubmatch(place); m != nil {
		return m[1]
	}
	return place
}

// ValidateTimeConditions checks the start/end pairing invariant: both
// present or both absent. Returns false plus a user-facing message when
// exactly one is supplied.
func ValidateTimeConditions(c model.Condition) (bool, string) {
	hasStart := c.StartTime != nil && *c.StartTime != ""
	hasEnd := c.EndTime != nil && *c.EndTime != ""
	if hasStart != hasEnd {
		return false, "근무 시작시각과 종료시각은 둘 다 입력하거나 둘 다 비워야 합니다."
	}
	return true, ""
}

// ageBucket turns an age value into its decade bucket. Numeric ages floor to
// the decade (25 -> "20대"); strings are assumed to be buckets already and
// pass through unchanged.
func ageBucket(age model.Scalar) string {
	if age.IsNumber {
		return fmt.Sprintf("%d대", int(age.Num)/10*10)
	}
	return age.Str
}

// splitWorkDays tokenizes a work-day condition. Comma-separated lists split
// on commas; otherwise every character is one weekday token ("월화수" ->
// 월, 화, 수).
func splitWorkDays(workDays string) []string {
	if strings.Contains(workDays, ",") {
		parts := strings.Split(workDays, ",")
		days := make([]string, 0, len(parts))
		for _, p := range parts {
			days = append(days, strings.TrimSpace(p))
		}
		return days
	}
	runes := []rune(workDays)
	days := make([]string, 0, len(runes))
	for _, r := range runes {
		days = append(days, string(r))
	}
	return days
}

// parseWage coerces a wage value to an integer minimum, stripping every
// non-digit character from string forms ("15,000원" -> 15000). Returns false
// when nothing numeric remains.
func parseWage(wage model.Scalar) (int64, bool) {
	if wage.IsNumber {
		return int64(wage.Num), true
	}
	var digits strings.Builder
	for _, r := range wage.Str {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// BuildConditions translates a condition into the common search predicate.
// Fields are evaluated in a fixed order so placeholder numbering is
// reproducible for a given condition. requirements is deliberately excluded:
// it is embedding input for hybrid search, never a relational filter.
func BuildConditions(c model.Condition) *Predicate {
	p := &Predicate{}

	// 1. gender: the requested gender or the no-preference sentinel.
	if c.Gender != nil && *c.Gender != "" {
		p.And("gender IN ('"+GenderAny+"', ?)", *c.Gender)
	}

	// 2. age: decade bucket membership in the row's varchar[] column.
	if c.Age != nil && !c.Age.IsEmpty() {
		p.And("?::varchar = ANY(age)", ageBucket(*c.Age))
	}

	// 3. place: prefix match at city/county/province granularity against the
	// suffix-normalized stored location.
	if c.Place != nil && *c.Place != "" {
		p.And(normalizedLocationExpr+" LIKE ? || '%'", regionPattern(*c.Place))
	}

	// 4. work_days: every day the posting requires must be among the days
	// the user offered, so the stored array must be contained in the
	// requested set. Offering extra days is fine; offering fewer is not.
	if c.WorkDays != nil && *c.WorkDays != "" {
		p.And("?::varchar[] @> work_days", pq.Array(splitWorkDays(*c.WorkDays)))
	}

	// 5-6. start_time/end_time: emitted only as a validated pair, each
	// matching within one hour of the requested time, inclusive.
	hasStart := c.StartTime != nil && *c.StartTime != ""
	hasEnd := c.EndTime != nil && *c.EndTime != ""
	if hasStart && hasEnd {
		p.And(
			"start_time::time BETWEEN (?::text::time - interval '1 hour') AND (?::text::time + interval '1 hour')",
			*c.StartTime, *c.StartTime,
		)
		p.And(
			"end_time::time BETWEEN (?::text::time - interval '1 hour') AND (?::text::time + interval '1 hour')",
			*c.EndTime, *c.EndTime,
		)
	}

	// 7. hourly_wage: stored wage at or above the requested minimum.
	if c.HourlyWage != nil && !c.HourlyWage.IsEmpty() {
		if wage, ok := parseWage(*c.HourlyWage); ok {
			p.And("hourly_wage >= ?", wage)
		}
	}

	// 8. category: exact match.
	if c.Category != nil && *c.Category != "" {
		p.And("category = ?", *c.Category)
	}

	return p
}
