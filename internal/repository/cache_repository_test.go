package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/reschedule-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil)
	ctx := context.Background()

	var dest []string
	err := repo.Get(ctx, "recommendations:cr-1", &dest)
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))
	assert.NoError(t, repo.Set(ctx, "recommendations:cr-1", []string{"a"}, time.Minute))
	assert.NoError(t, repo.Delete(ctx, "recommendations:cr-1"))
	assert.NoError(t, repo.Close())
}
