package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/reschedule-api/internal/models"
)

var proposalRowColumns = []string{"id", "change_request_id", "user_id", "day", "time_slot_id", "accepted_by_leader", "accepted_by_representative"}

func TestAvailabilityRepositoryListByUserKeepsDuplicates(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM availability_proposals WHERE user_id = $1 AND change_request_id = $2")).
		WithArgs("u1", "cr-1").
		WillReturnRows(sqlmock.NewRows(proposalRowColumns).
			AddRow("p1", "cr-1", "u1", day, "slot-a", false, false).
			AddRow("p2", "cr-1", "u1", day, "slot-a", false, false))

	proposals, err := repo.ListByUserAndChangeRequest(context.Background(), nil, "u1", "cr-1")
	require.NoError(t, err)
	assert.Len(t, proposals, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryListByChangeRequest(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE change_request_id = $1 AND ($2 = '' OR user_id = $2)")).
		WithArgs("cr-1", "").
		WillReturnRows(sqlmock.NewRows(proposalRowColumns))

	proposals, err := repo.ListByChangeRequest(context.Background(), nil, "cr-1", "")
	require.NoError(t, err)
	assert.NotNil(t, proposals)
	assert.Empty(t, proposals)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO availability_proposals")).
		WithArgs(sqlmock.AnyArg(), "cr-1", "u1", day, "slot-a", false, false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	proposal := &models.AvailabilityProposal{ChangeRequestID: "cr-1", UserID: "u1", Day: day, TimeSlotID: "slot-a"}
	require.NoError(t, repo.Create(context.Background(), nil, proposal))
	assert.NotEmpty(t, proposal.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
