package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"gigchat/internal/model"
)

// EmbeddingStore is the store contract the backfill job depends on.
type EmbeddingStore interface {
	EmbeddingSources(ctx context.Context) ([]model.EmbeddingSource, error)
	UpdateEmbedding(ctx context.Context, column string, id int64, embedding []float32) error
}

// BackfillReport summarizes one backfill run.
type BackfillReport struct {
	Success   bool    `json:"success"`
	Total     int     `json:"total"`
	Updated   int     `json:"updated"`
	Failed    int     `json:"failed"`
	FailedIDs []int64 `json:"failed_ids"`
	Duration  float64 `json:"duration"`
}

// BackfillJob (re)computes one embedding column for every posting. Each job
// instance is bound to one provider and its column. Rows are processed
// strictly sequentially and failures are isolated per row: a bad row is
// recorded and the batch continues. Re-running the job is the retry
// mechanism; recomputing an already-embedded row just overwrites it.
type BackfillJob struct {
	store    EmbeddingStore
	embedder Embedder
	column   string
}

// NewBackfillJob binds a backfill job to one provider and column.
func NewBackfillJob(store EmbeddingStore, embedder Embedder, column string) *BackfillJob {
	return &BackfillJob{store: store, embedder: embedder, column: column}
}

// Run executes one backfill pass over the full candidate row set. The only
// hard failure is being unable to load the candidates at all.
func (j *BackfillJob) Run(ctx context.Context) (*BackfillReport, error) {
	start := time.Now()

	sources, err := j.store.EmbeddingSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load backfill candidates: %w", err)
	}

	report := &BackfillReport{
		Total:     len(sources),
		FailedIDs: []int64{},
	}
	log.Printf("[backfill %s] processing %d rows", j.column, report.Total)

	for _, src := range sources {
		if err := j.processRow(ctx, src); err != nil {
			log.Printf("[backfill %s] job id %d failed: %v", j.column, src.ID, err)
			report.Failed++
			report.FailedIDs = append(report.FailedIDs, src.ID)
			continue
		}
		report.Updated++
		if report.Updated%10 == 0 {
			log.Printf("[backfill %s] progress %d/%d", j.column, report.Updated, report.Total)
		}
	}

	report.Success = true
	report.Duration = time.Since(start).Seconds()
	log.Printf("[backfill %s] done - total: %d, updated: %d, failed: %d, duration: %.1fs",
		j.column, report.Total, report.Updated, report.Failed, report.Duration)

	return report, nil
}

// processRow embeds one row's document and writes the result. A row with no
// source text fails without calling the provider.
func (j *BackfillJob) processRow(ctx context.Context, src model.EmbeddingSource) error {
	doc := src.Document()
	if strings.TrimSpace(doc) == "" {
		return fmt.Errorf("no source text to embed")
	}

	embedding, err := j.embedder.Embed(ctx, doc)
	if err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}
	if len(embedding) == 0 {
		return fmt.Errorf("provider returned an empty vector")
	}

	return j.store.UpdateEmbedding(ctx, j.column, src.ID, embedding)
}
