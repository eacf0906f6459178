package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Scalar is a JSON value that may arrive as either a string or a number.
// The LLM is asked to return strings, but it occasionally emits bare numbers
// for age and hourly_wage, so both forms are accepted.
type Scalar struct {
	Str      string
	Num      float64
	IsNumber bool
}

// UnmarshalJSON accepts string, number, or null. Anything else decodes to the
// empty scalar rather than failing the whole condition.
func (s *Scalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = Scalar{}
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			*s = Scalar{}
			return nil
		}
		*s = Scalar{Str: v}
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		*s = Scalar{}
		return nil
	}
	*s = Scalar{Num: n, IsNumber: true}
	return nil
}

// MarshalJSON renders the scalar back in its original form.
func (s Scalar) MarshalJSON() ([]byte, error) {
	if s.IsNumber {
		return json.Marshal(s.Num)
	}
	return json.Marshal(s.Str)
}

// String renders the value as text.
func (s Scalar) String() string {
	if s.IsNumber {
		return strconv.FormatFloat(s.Num, 'f', -1, 64)
	}
	return s.Str
}

// IsEmpty reports whether the scalar carries no value.
func (s Scalar) IsEmpty() bool {
	return !s.IsNumber && s.Str == ""
}

// Condition is the structured filter set extracted from user intent.
// All nine slots are always present in the JSON form (missing values encode
// as null) so that merge and predicate building can treat every condition
// uniformly. requirements is never used as a relational filter; non-empty
// text there routes the turn to hybrid vector search instead.
type Condition struct {
	Gender       *string `json:"gender"`
	Age          *Scalar `json:"age"`
	Place        *string `json:"place"`
	WorkDays     *string `json:"work_days"`
	StartTime    *string `json:"start_time"`
	EndTime      *string `json:"end_time"`
	HourlyWage   *Scalar `json:"hourly_wage"`
	Category     *string `json:"category"`
	Requirements *string `json:"requirements"`
}

// ConditionFromJSON decodes a condition from untrusted JSON. Malformed input
// (including a non-object) yields the empty condition, never an error.
func ConditionFromJSON(raw json.RawMessage) Condition {
	var c Condition
	if len(raw) == 0 {
		return c
	}
	if err := json.Unmarshal(raw, &c); err != nil {
		return Condition{}
	}
	return c
}

// Normalize canonicalizes a condition: slots holding an empty string or empty
// scalar become null. Normalize(Normalize(c)) == Normalize(c).
func Normalize(c Condition) Condition {
	if c.Gender != nil && *c.Gender == "" {
		c.Gender = nil
	}
	if c.Age != nil && c.Age.IsEmpty() {
		c.Age = nil
	}
	if c.Place != nil && *c.Place == "" {
		c.Place = nil
	}
	if c.WorkDays != nil && *c.WorkDays == "" {
		c.WorkDays = nil
	}
	if c.StartTime != nil && *c.StartTime == "" {
		c.StartTime = nil
	}
	if c.EndTime != nil && *c.EndTime == "" {
		c.EndTime = nil
	}
	if c.HourlyWage != nil && c.HourlyWage.IsEmpty() {
		c.HourlyWage = nil
	}
	if c.Category != nil && *c.Category == "" {
		c.Category = nil
	}
	if c.Requirements != nil && *c.Requirements == "" {
		c.Requirements = nil
	}
	return c
}

// Merge overlays extracted on top of base, slot by slot. A slot of base is
// replaced only when extracted carries a non-null, non-empty value for that
// slot, so conditions accumulated over earlier turns are never erased by a
// turn that stays silent about them.
func Merge(base, extracted Condition) Condition {
	merged := base
	if extracted.Gender != nil && *extracted.Gender != "" {
		merged.Gender = extracted.Gender
	}
	if extracted.Age != nil && !extracted.Age.IsEmpty() {
		merged.Age = extracted.Age
	}
	if extracted.Place != nil && *extracted.Place != "" {
		merged.Place = extracted.Place
	}
	if extracted.WorkDays != nil && *extracted.WorkDays != "" {
		merged.WorkDays = extracted.WorkDays
	}
	if extracted.StartTime != nil && *extracted.StartTime != "" {
		merged.StartTime = extracted.StartTime
	}
	if extracted.EndTime != nil && *extracted.EndTime != "" {
		merged.EndTime = extracted.EndTime
	}
	if extracted.HourlyWage != nil && !extracted.HourlyWage.IsEmpty() {
		merged.HourlyWage = extracted.HourlyWage
	}
	if extracted.Category != nil && *extracted.Category != "" {
		merged.Category = extracted.Category
	}
	if extracted.Requirements != nil && *extracted.Requirements != "" {
		merged.Requirements = extracted.Requirements
	}
	return merged
}

// HasRequirements reports whether the condition carries free-text
// requirements, which is what routes a search turn to hybrid vector search.
func (c Condition) HasRequirements() bool {
	return c.Requirements != nil && strings.TrimSpace(*c.Requirements) != ""
}
