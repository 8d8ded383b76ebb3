package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/reschedule-api/internal/models"
)

func TestRecommendationRepositoryCreateBatch(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRecommendationRepository(db)

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO change_recommendations")).
		WithArgs(
			sqlmock.AnyArg(), "cr-1", day, "slot-a", "101", sqlmock.AnyArg(),
			sqlmock.AnyArg(), "cr-1", day, "slot-a", "103", sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 2))

	recs := []models.ChangeRecommendation{
		{ChangeRequestID: "cr-1", RecommendedDay: day, RecommendedSlotID: "slot-a", RecommendedRoomID: "101"},
		{ChangeRequestID: "cr-1", RecommendedDay: day, RecommendedSlotID: "slot-a", RecommendedRoomID: "103"},
	}
	count, err := repo.CreateBatch(context.Background(), nil, recs)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NotEmpty(t, recs[0].ID)
	assert.NotEqual(t, recs[0].ID, recs[1].ID)
	assert.False(t, recs[1].CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecommendationRepositoryCreateBatchEmpty(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRecommendationRepository(db)

	count, err := repo.CreateBatch(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecommendationRepositoryCreateBatchSplitsLargeBatches(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRecommendationRepository(db)

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	recs := make([]models.ChangeRecommendation, 12000)
	for i := range recs {
		recs[i] = models.ChangeRecommendation{
			ChangeRequestID:   "cr-1",
			RecommendedDay:    day,
			RecommendedSlotID: fmt.Sprintf("slot-%d", i/120),
			RecommendedRoomID: fmt.Sprintf("room-%d", i%120),
		}
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO change_recommendations")).
		WillReturnResult(sqlmock.NewResult(0, recommendationInsertChunk))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO change_recommendations")).
		WillReturnResult(sqlmock.NewResult(0, 2000))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	count, err := repo.CreateBatch(context.Background(), tx, recs)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.Equal(t, 12000, count)
	assert.LessOrEqual(t, recommendationInsertChunk*6, 65535)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecommendationRepositoryCreateBatchStopsOnChunkFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRecommendationRepository(db)

	recs := make([]models.ChangeRecommendation, recommendationInsertChunk+1)
	for i := range recs {
		recs[i] = models.ChangeRecommendation{ChangeRequestID: "cr-1", RecommendedSlotID: "slot-a", RecommendedRoomID: fmt.Sprintf("room-%d", i)}
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO change_recommendations")).
		WillReturnResult(sqlmock.NewResult(0, recommendationInsertChunk))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO change_recommendations")).
		WillReturnError(errors.New("connection reset"))

	count, err := repo.CreateBatch(context.Background(), nil, recs)
	require.Error(t, err)
	assert.Zero(t, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecommendationRepositoryListByChangeRequest(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRecommendationRepository(db)

	now := time.Now().UTC()
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "change_request_id", "recommended_day", "recommended_slot_id", "recommended_room_id", "created_at"}).
		AddRow("rec-1", "cr-1", day, "slot-a", "101", now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM change_recommendations WHERE change_request_id = $1")).
		WithArgs("cr-1").
		WillReturnRows(rows)

	recs, err := repo.ListByChangeRequest(context.Background(), nil, "cr-1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "101", recs[0].RecommendedRoomID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecommendationRepositoryListEmptyIsNotNil(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRecommendationRepository(db)

	mock.ExpectQuery("FROM change_recommendations").
		WithArgs("cr-9").
		WillReturnRows(sqlmock.NewRows([]string{"id", "change_request_id", "recommended_day", "recommended_slot_id", "recommended_room_id", "created_at"}))

	recs, err := repo.ListByChangeRequest(context.Background(), nil, "cr-9")
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestRecommendationRepositoryDeleteIsIdempotent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRecommendationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM change_recommendations WHERE change_request_id = $1")).
		WithArgs("cr-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM change_recommendations WHERE change_request_id = $1")).
		WithArgs("cr-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	removed, err := repo.DeleteByChangeRequest(context.Background(), nil, "cr-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	removed, err = repo.DeleteByChangeRequest(context.Background(), nil, "cr-1")
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecommendationRepositoryLockChangeRequest(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRecommendationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).
		WithArgs("cr-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	require.NoError(t, repo.LockChangeRequest(context.Background(), tx, "cr-1"))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}
