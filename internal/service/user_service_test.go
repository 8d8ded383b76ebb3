package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/reschedule-api/internal/dto"
	"github.com/noah-isme/reschedule-api/internal/models"
	"github.com/noah-isme/reschedule-api/internal/repository"
	appErrors "github.com/noah-isme/reschedule-api/pkg/errors"
)

type mockUserRepo struct {
	users     map[string]*models.User
	listUsers []models.User
	listCount int
	listErr   error
	createErr error
	deleted   []string
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	return m.listUsers, m.listCount, nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		copy := *user
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	m.users[id].Active = false
	return nil
}

func newUserRepo() *mockUserRepo {
	return &mockUserRepo{users: map[string]*models.User{
		"1": {ID: "1", Email: "coordinator@example.com", FullName: "Anna Nowak", Role: models.RoleCoordinator, Active: true},
		"2": {ID: "2", Email: "leader@example.com", FullName: "Jan Kowalski", Role: models.RoleLeader, Active: true},
	}}
}

func TestUserServiceList(t *testing.T) {
	repo := &mockUserRepo{listUsers: []models.User{{ID: "1", Email: "a@example.com"}}, listCount: 41}
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	users, pagination, err := svc.List(context.Background(), models.UserFilter{Page: 3, PageSize: 500})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 41, pagination.TotalCount)
	assert.Equal(t, 3, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)

	repo.listErr = errors.New("timeout")
	_, _, err = svc.List(context.Background(), models.UserFilter{})
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
}

func TestUserServiceCreate(t *testing.T) {
	repo := newUserRepo()
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	user, err := svc.Create(context.Background(), dto.CreateUserRequest{
		Email: " Rep@Example.COM ", FullName: "Ola Rep", Password: "secret1", Role: models.RoleRepresentative,
	}, "1")
	require.NoError(t, err)
	assert.Equal(t, "rep@example.com", user.Email)
	assert.True(t, user.Active)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret1")))
	assert.Contains(t, repo.users, user.ID)
}

func TestUserServiceCreateConflicts(t *testing.T) {
	repo := newUserRepo()
	svc := NewUserService(repo, validator.New(), zap.NewNop())
	req := dto.CreateUserRequest{Email: "LEADER@example.com", FullName: "Dup", Password: "secret1", Role: models.RoleLeader}

	_, err := svc.Create(context.Background(), req, "1")
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	req.Email = "fresh@example.com"
	repo.createErr = repository.ErrDuplicateEmail
	_, err = svc.Create(context.Background(), req, "1")
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
}

func TestUserServiceCreateValidation(t *testing.T) {
	svc := NewUserService(newUserRepo(), validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), dto.CreateUserRequest{Email: "x@example.com", FullName: "X", Password: "secret1", Role: "STUDENT"}, "1")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Create(context.Background(), dto.CreateUserRequest{Email: "x@example.com", FullName: "X", Password: "123", Role: models.RoleLeader}, "1")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestUserServiceUpdatePartial(t *testing.T) {
	repo := newUserRepo()
	svc := NewUserService(repo, validator.New(), zap.NewNop())
	role := models.RoleAdmin
	password := "newsecret"

	user, err := svc.Update(context.Background(), "2", dto.UpdateUserRequest{Role: &role, Password: &password}, "1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.Equal(t, "Jan Kowalski", user.FullName)
	assert.Equal(t, "leader@example.com", user.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.users["2"].PasswordHash), []byte("newsecret")))
}

func TestUserServiceUpdateEmail(t *testing.T) {
	repo := newUserRepo()
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	taken := "coordinator@example.com"
	_, err := svc.Update(context.Background(), "2", dto.UpdateUserRequest{Email: &taken}, "1")
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	same := "LEADER@example.com"
	user, err := svc.Update(context.Background(), "2", dto.UpdateUserRequest{Email: &same}, "1")
	require.NoError(t, err)
	assert.Equal(t, "leader@example.com", user.Email)

	_, err = svc.Update(context.Background(), "missing", dto.UpdateUserRequest{}, "1")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestUserServiceDelete(t *testing.T) {
	repo := newUserRepo()
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), "2", "1"))
	assert.False(t, repo.users["2"].Active)

	err := svc.Delete(context.Background(), "1", "1")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	err = svc.Delete(context.Background(), "missing", "1")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	assert.Equal(t, []string{"2"}, repo.deleted)
}
