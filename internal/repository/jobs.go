package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"gigchat/internal/model"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// Embedding columns on public.jobs1, one per provider dimensionality.
const (
	EmbeddingColumn768  = "embedding768"
	EmbeddingColumn1536 = "embedding1536"
)

// searchResultLimit caps result cardinality for both search paths.
const searchResultLimit = 50

const jobColumns = `id, company, title, location, hourly_wage, work_days, start_time, end_time, category, gender, age, description, deadline, status`

// JobRepository handles database operations for job postings.
type JobRepository struct {
	db *sqlx.DB
}

// NewJobRepository connects to PostgreSQL and configures the pool.
func NewJobRepository(dsn string, maxConn, maxIdleConn int) (*JobRepository, error) {
	// Disable prepared statement caching to avoid "unnamed prepared statement
	// does not exist" errors behind pgbouncer.
	if !strings.Contains(dsn, "?") {
		dsn += "?prefer_simple_protocol=true"
	} else {
		dsn += "&prefer_simple_protocol=true"
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &JobRepository{db: db}, nil
}

// NewJobRepositoryWithDB wraps an existing connection, mainly for tests.
func NewJobRepositoryWithDB(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Close closes the database connection.
func (r *JobRepository) Close() error {
	return r.db.Close()
}

// Categories loads the closed category list the classifier prompt offers.
func (r *JobRepository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	query := `SELECT nm FROM public.category WHERE kind = '01' AND depth = 1 ORDER BY seq`
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	return categories, nil
}

// SearchActive runs the relational-only search: active postings filtered by
// the condition predicate, newest first, capped at the result limit.
func (r *JobRepository) SearchActive(ctx context.Context, cond model.Condition) ([]model.JobResult, error) {
	query := `SELECT ` + jobColumns + ` FROM public.jobs1 WHERE status = 'ACTIVE'`

	clause, args, _ := BuildConditions(cond).Render(0)
	query += clause
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d", searchResultLimit)

	var rows []model.JobRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to search jobs: %w", err)
	}

	return toResults(rows), nil
}

// HybridSearchActive runs the relational predicate plus vector-similarity
// ranking on one embedding column. The query vector is always bound as $1,
// so the condition predicate renders starting at index 1 and the threshold
// clause references that same first parameter.
func (r *JobRepository) HybridSearchActive(
	ctx context.Context,
	cond model.Condition,
	embedding []float32,
	column string,
	threshold float64,
) ([]model.JobResult, error) {
	if err := validateEmbeddingColumn(column); err != nil {
		return nil, err
	}

	simExpr := fmt.Sprintf("1 - (%s <=> $1::vector)", column)
	query := `SELECT ` + jobColumns + `, ` + simExpr + ` AS similarity FROM public.jobs1 WHERE status = 'ACTIVE'`

	clause, condArgs, next := BuildConditions(cond).Render(1)
	query += clause
	query += fmt.Sprintf(" AND (%s) >= $%d", simExpr, next+1)
	query += fmt.Sprintf(" ORDER BY similarity DESC, created_at DESC LIMIT %d", searchResultLimit)

	args := make([]any, 0, len(condArgs)+2)
	args = append(args, pgvector.NewVector(embedding))
	args = append(args, condArgs...)
	args = append(args, threshold)

	var rows []model.JobRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to run hybrid search: %w", err)
	}

	return toResults(rows), nil
}

// GetJob retrieves a single posting by id. Returns nil when not found.
func (r *JobRepository) GetJob(ctx context.Context, id int64) (*model.JobResult, error) {
	var row model.JobRow
	query := `SELECT ` + jobColumns + ` FROM public.jobs1 WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	result := row.Result()
	return &result, nil
}

// EmbeddingSources loads the full candidate row set for a backfill run.
// A full-table scan by design: the job exists for bulk (re)population.
func (r *JobRepository) EmbeddingSources(ctx context.Context) ([]model.EmbeddingSource, error) {
	var sources []model.EmbeddingSource
	query := `SELECT id, company, title, description, qualifications FROM public.jobs1 ORDER BY id`
	if err := r.db.SelectContext(ctx, &sources, query); err != nil {
		return nil, fmt.Errorf("failed to load embedding sources: %w", err)
	}
	return sources, nil
}

// UpdateEmbedding writes one row's embedding column.
func (r *JobRepository) UpdateEmbedding(ctx context.Context, column string, id int64, embedding []float32) error {
	if err := validateEmbeddingColumn(column); err != nil {
		return err
	}
	query := fmt.Sprintf(`UPDATE public.jobs1 SET %s = $1::vector WHERE id = $2`, column)
	if _, err := r.db.ExecContext(ctx, query, pgvector.NewVector(embedding), id); err != nil {
		return fmt.Errorf("failed to update %s for job %d: %w", column, id, err)
	}
	return nil
}

// validateEmbeddingColumn guards the interpolated column name.
func validateEmbeddingColumn(column string) error {
	switch column {
	case EmbeddingColumn768, EmbeddingColumn1536:
		return nil
	}
	return fmt.Errorf("unknown embedding column: %s", column)
}

func toResults(rows []model.JobRow) []model.JobResult {
	results := make([]model.JobResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, row.Result())
	}
	return results
}
