package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigchat/internal/model"
)

func newMockRepo(t *testing.T) (*JobRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewJobRepositoryWithDB(sqlx.NewDb(db, "sqlmock")), mock
}

var jobColumnNames = []string{
	"id", "company", "title", "location", "hourly_wage", "work_days",
	"start_time", "end_time", "category", "gender", "age", "description",
	"deadline", "status",
}

func sampleJobValues(id int64, deadline driver.Value) []driver.Value {
	return []driver.Value{
		id, "카페모카", "주말 바리스타", "서울특별시 강남구 역삼동", int64(12000),
		[]byte("{토,일}"), "09:00", "18:00", "외식/음료", "무관",
		[]byte("{20대,30대}"), "주말 근무 가능하신 분", deadline, "ACTIVE",
	}
}

func TestSearchActiveQueryShape(t *testing.T) {
	repo, mock := newMockRepo(t)

	deadline := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(jobColumnNames).
		AddRow(sampleJobValues(1, deadline)...)

	wage := model.Scalar{Str: "12,000원"}
	cond := model.Condition{HourlyWage: &wage}

	query := `SELECT ` + jobColumns + ` FROM public.jobs1 WHERE status = 'ACTIVE'` +
		` AND hourly_wage >= $1 ORDER BY created_at DESC LIMIT 50`
	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs(int64(12000)).
		WillReturnRows(rows)

	results, err := repo.SearchActive(context.Background(), cond)
	require.NoError(t, err)
	require.Len(t, results, 1)

	got := results[0]
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, []string{"토", "일"}, got.WorkDays)
	assert.Equal(t, []string{"20대", "30대"}, got.Age)
	require.NotNil(t, got.Deadline)
	assert.Equal(t, "2026-03-01T18:00:00Z", *got.Deadline)
	assert.Nil(t, got.Similarity)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchActiveNoConditions(t *testing.T) {
	repo, mock := newMockRepo(t)

	query := `SELECT ` + jobColumns + ` FROM public.jobs1 WHERE status = 'ACTIVE'` +
		` ORDER BY created_at DESC LIMIT 50`
	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WillReturnRows(sqlmock.NewRows(jobColumnNames))

	results, err := repo.SearchActive(context.Background(), model.Condition{})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHybridSearchActiveQueryShape(t *testing.T) {
	repo, mock := newMockRepo(t)

	sim := 0.87
	rows := sqlmock.NewRows(append(jobColumnNames, "similarity")).
		AddRow(append(sampleJobValues(7, nil), sim)...)

	place := "서울특별시 강남구"
	cond := model.Condition{Place: &place}

	simExpr := "1 - (embedding768 <=> $1::vector)"
	query := `SELECT ` + jobColumns + `, ` + simExpr + ` AS similarity` +
		` FROM public.jobs1 WHERE status = 'ACTIVE'` +
		` AND ` + normalizedLocationExpr + ` LIKE $2 || '%'` +
		` AND (` + simExpr + `) >= $3` +
		` ORDER BY similarity DESC, created_at DESC LIMIT 50`
	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs(sqlmock.AnyArg(), "서울시", 0.4).
		WillReturnRows(rows)

	results, err := repo.HybridSearchActive(
		context.Background(), cond, []float32{0.1, 0.2}, EmbeddingColumn768, 0.4,
	)
	require.NoError(t, err)
	require.Len(t, results, 1)

	got := results[0]
	assert.Equal(t, int64(7), got.ID)
	require.NotNil(t, got.Similarity)
	assert.Equal(t, 0.87, *got.Similarity)
	assert.Nil(t, got.Deadline)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHybridSearchActiveRejectsUnknownColumn(t *testing.T) {
	repo, _ := newMockRepo(t)

	_, err := repo.HybridSearchActive(
		context.Background(), model.Condition{}, []float32{0.1}, "embedding9999", 0.4,
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown embedding column")
}

func TestGetJobNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	query := `SELECT ` + jobColumns + ` FROM public.jobs1 WHERE id = $1`
	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs(int64(42)).
		WillReturnError(sql.ErrNoRows)

	result, err := repo.GetJob(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateEmbedding(t *testing.T) {
	repo, mock := newMockRepo(t)

	query := `UPDATE public.jobs1 SET embedding1536 = $1::vector WHERE id = $2`
	mock.ExpectExec(regexp.QuoteMeta(query)).
		WithArgs(sqlmock.AnyArg(), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateEmbedding(context.Background(), EmbeddingColumn1536, 3, []float32{0.5})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateEmbeddingRejectsUnknownColumn(t *testing.T) {
	repo, _ := newMockRepo(t)

	err := repo.UpdateEmbedding(context.Background(), "status", 3, []float32{0.5})
	require.Error(t, err)
}

func TestCategories(t *testing.T) {
	repo, mock := newMockRepo(t)

	query := `SELECT nm FROM public.category WHERE kind = '01' AND depth = 1 ORDER BY seq`
	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WillReturnRows(sqlmock.NewRows([]string{"nm"}).AddRow("외식/음료").AddRow("매장관리/판매"))

	categories, err := repo.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"외식/음료", "매장관리/판매"}, categories)
	assert.NoError(t, mock.ExpectationsWereMet())
}
