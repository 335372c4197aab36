package repository

import (
	"context"
	"testing"
	"time"

	"github.com/aman-churiwal/getyoursite/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSubmission(name string, createdAt time.Time) *models.Submission {
	return &models.Submission{
		Name:          name,
		Email:         name + "@example.com",
		Subject:       models.DefaultSubject,
		Message:       "Hello",
		ClientAddress: "203.0.113.7",
		CreatedAt:     createdAt,
	}
}

func TestSubmissionRepository_InsertDefaultsUnread(t *testing.T) {
	repo := NewSubmissionRepository(newTestDB(t))
	ctx := context.Background()

	s := newSubmission("jane", time.Now().UTC())
	s.Read = true

	id, err := repo.Insert(ctx, s)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	list, err := repo.List(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
	assert.False(t, list[0].Read)
	assert.Equal(t, "jane", list[0].Name)
	assert.Equal(t, "203.0.113.7", list[0].ClientAddress)
}

func TestSubmissionRepository_ListNewestFirstWithLimit(t *testing.T) {
	repo := NewSubmissionRepository(newTestDB(t))
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for i, name := range []string{"first", "second", "third"} {
		_, err := repo.Insert(ctx, newSubmission(name, base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}

	list, err := repo.List(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "third", list[0].Name)
	assert.Equal(t, "second", list[1].Name)

	list, err = repo.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "first", list[0].Name)
}

func TestSubmissionRepository_MarkReadIsIdempotent(t *testing.T) {
	repo := NewSubmissionRepository(newTestDB(t))
	ctx := context.Background()

	id, err := repo.Insert(ctx, newSubmission("jane", time.Now().UTC()))
	require.NoError(t, err)

	require.NoError(t, repo.MarkRead(ctx, id.String()))
	require.NoError(t, repo.MarkRead(ctx, id.String()))

	list, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Read)

	unread, err := repo.CountUnread(ctx)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestSubmissionRepository_MissingIDsAreNoOps(t *testing.T) {
	repo := NewSubmissionRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.Insert(ctx, newSubmission("jane", time.Now().UTC()))
	require.NoError(t, err)

	assert.NoError(t, repo.MarkRead(ctx, uuid.NewString()))
	assert.NoError(t, repo.Delete(ctx, uuid.NewString()))
	assert.NoError(t, repo.MarkRead(ctx, "not-a-uuid"))
	assert.NoError(t, repo.Delete(ctx, "not-a-uuid"))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSubmissionRepository_Delete(t *testing.T) {
	repo := NewSubmissionRepository(newTestDB(t))
	ctx := context.Background()

	id, err := repo.Insert(ctx, newSubmission("jane", time.Now().UTC()))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, id.String()))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
