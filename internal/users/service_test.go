package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accessd/accessd/internal/platform/httpx"
)

type mockRepository struct {
	users map[int64]*User
}

func newMockRepository() *mockRepository {
	return &mockRepository{users: make(map[int64]*User)}
}

func (m *mockRepository) add(id int64, email string, fullName *string) {
	m.users[id] = &User{ID: id, Email: email, FullName: fullName, IsActive: true, CreatedAt: time.Now()}
}

func (m *mockRepository) GetUser(ctx context.Context, id int64) (*User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *mockRepository) UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) (*User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	if update.Email != nil {
		for _, other := range m.users {
			if other.ID != id && other.Email == *update.Email {
				return nil, httpx.ErrDuplicate
			}
		}
		user.Email = *update.Email
	}
	if update.FullName != nil {
		user.FullName = update.FullName
	}
	user.UpdatedAt = time.Now()
	copied := *user
	return &copied, nil
}

func (m *mockRepository) Deactivate(ctx context.Context, id int64) (*User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	user.IsActive = false
	copied := *user
	return &copied, nil
}

var _ RepositoryPort = (*mockRepository)(nil)

func strPtr(s string) *string { return &s }

func TestUpdateProfileNormalisesEmail(t *testing.T) {
	repo := newMockRepository()
	repo.add(1, "old@mail.test", nil)
	svc := NewService(repo)

	user, err := svc.UpdateProfile(context.Background(), 1, ProfileUpdate{Email: strPtr("  New@Mail.Test ")})
	require.NoError(t, err)
	assert.Equal(t, "new@mail.test", user.Email)
}

func TestUpdateProfileRejectsEmptyEmail(t *testing.T) {
	repo := newMockRepository()
	repo.add(1, "old@mail.test", nil)
	svc := NewService(repo)

	_, err := svc.UpdateProfile(context.Background(), 1, ProfileUpdate{Email: strPtr("   ")})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdateProfileDuplicateEmailConflicts(t *testing.T) {
	repo := newMockRepository()
	repo.add(1, "a@mail.test", nil)
	repo.add(2, "b@mail.test", nil)
	svc := NewService(repo)

	_, err := svc.UpdateProfile(context.Background(), 1, ProfileUpdate{Email: strPtr("b@mail.test")})
	require.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestUpdateProfilePartialPatch(t *testing.T) {
	repo := newMockRepository()
	repo.add(1, "a@mail.test", strPtr("Alice"))
	svc := NewService(repo)

	user, err := svc.UpdateProfile(context.Background(), 1, ProfileUpdate{FullName: strPtr("Alice B")})
	require.NoError(t, err)
	assert.Equal(t, "a@mail.test", user.Email, "omitted fields stay unchanged")
	require.NotNil(t, user.FullName)
	assert.Equal(t, "Alice B", *user.FullName)
}

func TestDeactivateIsSoftDelete(t *testing.T) {
	repo := newMockRepository()
	repo.add(1, "a@mail.test", nil)
	svc := NewService(repo)

	user, err := svc.Deactivate(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, user.IsActive)

	// The row survives; only the flag flips.
	still, err := svc.GetProfile(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, still.IsActive)
}
