package model

import (
	"testing"
	"time"
)

func TestJobRowResultDeadline(t *testing.T) {
	deadline := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	row := JobRow{ID: 7, Status: JobStatusActive, Deadline: &deadline}

	result := row.Result()
	if result.Deadline == nil || *result.Deadline != "2026-03-01T18:00:00Z" {
		t.Errorf("deadline = %v, want 2026-03-01T18:00:00Z", result.Deadline)
	}

	row.Deadline = nil
	if result := row.Result(); result.Deadline != nil {
		t.Errorf("nil deadline should stay nil, got %v", *result.Deadline)
	}
}

func TestEmbeddingSourceDocument(t *testing.T) {
	tests := []struct {
		name string
		src  EmbeddingSource
		want string
	}{
		{
			name: "all fields",
			src: EmbeddingSource{
				Company:        strPtr("카페 봄"),
				Title:          strPtr("바리스타 모집"),
				Description:    strPtr("주말 근무"),
				Qualifications: strPtr("바리스타 자격증"),
			},
			want: "카페 봄 바리스타 모집 주말 근무 바리스타 자격증",
		},
		{
			name: "absent fields are skipped",
			src: EmbeddingSource{
				Title:       strPtr("바리스타 모집"),
				Description: strPtr("주말 근무"),
			},
			want: "바리스타 모집 주말 근무",
		},
		{
			name: "nothing to embed",
			src:  EmbeddingSource{Company: strPtr("")},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.src.Document(); got != tt.want {
				t.Errorf("Document() = %q, want %q", got, tt.want)
			}
		})
	}
}
