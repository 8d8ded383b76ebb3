package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/reschedule-api/internal/dto"
	"github.com/noah-isme/reschedule-api/internal/models"
)

// unavailabilityCovers mirrors the room_unavailabilities query: both ends
// inclusive, compared as calendar days.
func unavailabilityCovers(u models.RoomUnavailability, on time.Time) bool {
	d := models.TruncateDay(on)
	return !d.Before(models.TruncateDay(u.StartDatetime)) && !d.After(models.TruncateDay(u.EndDatetime))
}

// eventOccupies mirrors the course_events query.
func eventOccupies(e models.CourseEvent, roomID string, on time.Time, slotID string) bool {
	if e.Canceled || e.RoomID == nil || *e.RoomID != roomID {
		return false
	}
	return e.TimeSlotID == slotID && models.TruncateDay(e.Day).Equal(models.TruncateDay(on))
}

// campus is an in-memory stand-in for every repository the recommendation
// service reads from and writes to.
type campus struct {
	mu sync.Mutex

	changeRequests  map[string]*models.ChangeRequest
	users           map[string]*models.User
	proposals       []models.AvailabilityProposal
	rooms           []models.Room
	unavailable     []models.RoomUnavailability
	events          []models.CourseEvent
	recommendations []models.ChangeRecommendation

	findErr    error
	roomsErr   error
	insertErr  error
	lockCalls  int
	roomLookup int
	nextID     int
}

func newCampus() *campus {
	return &campus{
		changeRequests: map[string]*models.ChangeRequest{},
		users:          map[string]*models.User{},
	}
}

func day(t *testing.T, raw string) time.Time {
	t.Helper()
	parsed, err := time.Parse(models.DayLayout, raw)
	require.NoError(t, err)
	return parsed
}

func strPtr(v string) *string { return &v }

func (c *campus) addChangeRequest(id string, requirements *string) {
	c.changeRequests[id] = &models.ChangeRequest{
		ID:               id,
		CourseEventID:    "event-" + id,
		Status:           models.ChangeRequestStatusPending,
		RoomRequirements: requirements,
	}
}

func (c *campus) addUsers(ids ...string) {
	for _, id := range ids {
		c.users[id] = &models.User{ID: id, Role: models.RoleLeader, Active: true}
	}
}

func (c *campus) propose(changeRequestID, userID string, on time.Time, slotID string) {
	c.proposals = append(c.proposals, models.AvailabilityProposal{
		ChangeRequestID: changeRequestID,
		UserID:          userID,
		Day:             on,
		TimeSlotID:      slotID,
	})
}

func (c *campus) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.ChangeRequest, error) {
	if c.findErr != nil {
		return nil, c.findErr
	}
	cr, ok := c.changeRequests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return cr, nil
}

func (c *campus) ListByUserAndChangeRequest(ctx context.Context, exec sqlx.ExtContext, userID, changeRequestID string) ([]models.AvailabilityProposal, error) {
	var out []models.AvailabilityProposal
	for _, p := range c.proposals {
		if p.UserID == userID && p.ChangeRequestID == changeRequestID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (c *campus) ListAll(ctx context.Context, exec sqlx.ExtContext) ([]models.Room, error) {
	if c.roomsErr != nil {
		return nil, c.roomsErr
	}
	return c.rooms, nil
}

func (c *campus) ListUnavailableIDs(ctx context.Context, exec sqlx.ExtContext, on time.Time) ([]string, error) {
	c.roomLookup++
	var ids []string
	for _, u := range c.unavailable {
		if unavailabilityCovers(u, on) {
			ids = append(ids, u.RoomID)
		}
	}
	return ids, nil
}

func (c *campus) ListOccupiedIDs(ctx context.Context, exec sqlx.ExtContext, on time.Time, slotID string) ([]string, error) {
	var ids []string
	for _, room := range c.rooms {
		for _, event := range c.events {
			if eventOccupies(event, room.ID, on, slotID) {
				ids = append(ids, room.ID)
				break
			}
		}
	}
	return ids, nil
}

func (c *campus) LockChangeRequest(ctx context.Context, exec sqlx.ExtContext, changeRequestID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lockCalls++
	return nil
}

func (c *campus) CreateBatch(ctx context.Context, exec sqlx.ExtContext, recs []models.ChangeRecommendation) (int, error) {
	if c.insertErr != nil {
		return 0, c.insertErr
	}
	for _, rec := range recs {
		c.nextID++
		rec.ID = fmt.Sprintf("rec-%d", c.nextID)
		c.recommendations = append(c.recommendations, rec)
	}
	return len(recs), nil
}

func (c *campus) ListByChangeRequest(ctx context.Context, exec sqlx.ExtContext, changeRequestID string) ([]models.ChangeRecommendation, error) {
	out := []models.ChangeRecommendation{}
	for _, rec := range c.recommendations {
		if rec.ChangeRequestID == changeRequestID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (c *campus) DeleteByChangeRequest(ctx context.Context, exec sqlx.ExtContext, changeRequestID string) (int64, error) {
	kept := c.recommendations[:0]
	var removed int64
	for _, rec := range c.recommendations {
		if rec.ChangeRequestID == changeRequestID {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	c.recommendations = kept
	return removed, nil
}

// campusUsers adapts the user map to the user reader interface, which shares
// the FindByID name with the change request reader.
type campusUsers struct{ c *campus }

func (u campusUsers) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.User, error) {
	user, ok := u.c.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

type cacheStub struct {
	entries     map[string]interface{}
	invalidated []string
}

func newCacheStub() *cacheStub {
	return &cacheStub{entries: map[string]interface{}{}}
}

func (c *cacheStub) Get(ctx context.Context, key string, dest interface{}) bool {
	value, ok := c.entries[key]
	if !ok {
		return false
	}
	if target, ok := dest.(*[]dto.RecommendationView); ok {
		*target = value.([]dto.RecommendationView)
		return true
	}
	return false
}

func (c *cacheStub) Set(ctx context.Context, key string, value interface{}) {
	c.entries[key] = value
}

func (c *cacheStub) Invalidate(ctx context.Context, keys ...string) {
	c.invalidated = append(c.invalidated, keys...)
	for _, key := range keys {
		delete(c.entries, key)
	}
}

type txProviderMock struct {
	db   *sqlx.DB
	mock sqlmock.Sqlmock
}

func newTxProviderMock(t *testing.T) (*txProviderMock, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb, mock: mock}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

func newRecommendationServiceFixture(t *testing.T, world *campus, cache recommendationCache) (*RecommendationService, sqlmock.Sqlmock, *MetricsService) {
	t.Helper()
	tx, mock := newTxProviderMock(t)
	metrics := NewMetricsService()
	svc := NewRecommendationService(
		world,
		campusUsers{c: world},
		world,
		world,
		NewRoomFilter(world, metrics),
		world,
		tx,
		cache,
		metrics,
		nil,
		nil,
		RecommendationConfig{},
	)
	return svc, mock, metrics
}
