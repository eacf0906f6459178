package model

import (
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// Job posting status values. Only ACTIVE rows are searchable.
const JobStatusActive = "ACTIVE"

// JobRow is the database row shape for public.jobs1.
type JobRow struct {
	ID             int64           `db:"id"`
	Company        *string         `db:"company"`
	Title          *string         `db:"title"`
	Location       *string         `db:"location"`
	HourlyWage     *int64          `db:"hourly_wage"`
	WorkDays       pq.StringArray  `db:"work_days"`
	StartTime      *string         `db:"start_time"`
	EndTime        *string         `db:"end_time"`
	Category       *string         `db:"category"`
	Gender         *string         `db:"gender"`
	Age            pq.StringArray  `db:"age"`
	Description    *string         `db:"description"`
	Qualifications *string         `db:"qualifications"`
	Deadline       *time.Time      `db:"deadline"`
	Status         string          `db:"status"`
	Embedding768   pgvector.Vector `db:"embedding768"`
	Embedding1536  pgvector.Vector `db:"embedding1536"`
	Similarity     *float64        `db:"similarity"`
}

// JobResult is the flat record returned to the client for one posting.
// Similarity is present only for hybrid search results.
type JobResult struct {
	ID         int64    `json:"id"`
	Company    *string  `json:"company"`
	Title      *string  `json:"title"`
	Location   *string  `json:"location"`
	HourlyWage *int64   `json:"hourly_wage"`
	WorkDays   []string `json:"work_days"`
	StartTime  *string  `json:"start_time"`
	EndTime    *string  `json:"end_time"`
	Category   *string  `json:"category"`
	Gender     *string  `json:"gender"`
	Age        []string `json:"age"`
	Description *string `json:"description"`
	Deadline   *string  `json:"deadline"`
	Status     string   `json:"status"`
	Similarity *float64 `json:"similarity,omitempty"`
}

// Result flattens a row into the client-facing record, rendering the
// deadline as RFC 3339 or null.
func (r JobRow) Result() JobResult {
	var deadline *string
	if r.Deadline != nil {
		s := r.Deadline.Format(time.RFC3339)
		deadline = &s
	}
	return JobResult{
		ID:          r.ID,
		Company:     r.Company,
		Title:       r.Title,
		Location:    r.Location,
		HourlyWage:  r.HourlyWage,
		WorkDays:    r.WorkDays,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		Category:    r.Category,
		Gender:      r.Gender,
		Age:         r.Age,
		Description: r.Description,
		Deadline:    deadline,
		Status:      r.Status,
		Similarity:  r.Similarity,
	}
}

// EmbeddingSource is the per-row text material for the embedding backfill.
type EmbeddingSource struct {
	ID             int64   `db:"id"`
	Company        *string `db:"company"`
	Title          *string `db:"title"`
	Description    *string `db:"description"`
	Qualifications *string `db:"qualifications"`
}

// Document concatenates the non-empty source fields with single spaces.
// An empty result means the row has nothing to embed.
func (s EmbeddingSource) Document() string {
	parts := make([]string, 0, 4)
	for _, p := range []*string{s.Company, s.Title, s.Description, s.Qualifications} {
		if p != nil && *p != "" {
			parts = append(parts, *p)
		}
	}
	return strings.Join(parts, " ")
}
