// service/user_service_test.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"go-users-api/model"
	"go-users-api/repository"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}
func (m *mockUserRepo) Insert(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}
func (m *mockUserRepo) Update(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}
func (m *mockUserRepo) Upsert(ctx context.Context, user *model.User) (bool, error) {
	args := m.Called(ctx, user)
	return args.Bool(0), args.Error(1)
}
func (m *mockUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockUserRepo) List(ctx context.Context, page model.PageRequest) (*model.PagedUsers, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PagedUsers), args.Error(1)
}

type mockCache struct{ mock.Mock }

func (m *mockCache) Get(ctx context.Context, key string) *redis.StringCmd {
	args := m.Called(ctx, key)
	return redis.NewStringResult(args.String(0), args.Error(1))
}
func (m *mockCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	args := m.Called(ctx, key, value, expiration)
	return redis.NewStatusResult("OK", args.Error(0))
}
func (m *mockCache) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	args := m.Called(ctx, keys)
	return redis.NewIntResult(int64(len(keys)), args.Error(0))
}

func TestUserService_GetByID(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	key := "users:" + id.String()
	user := &model.User{ID: id, Login: "jdoe", FirstName: "John", LastName: "Doe", CreatedAt: time.Now().UTC().Truncate(time.Second)}

	t.Run("cache miss reads repository and populates cache", func(t *testing.T) {
		repo, cache := new(mockUserRepo), new(mockCache)
		cache.On("Get", ctx, key).Return("", redis.Nil).Once()
		repo.On("GetByID", ctx, id).Return(user, nil).Once()
		cache.On("Set", ctx, key, mock.Anything, 5*time.Minute).Return(nil).Once()

		got, err := NewUserService(repo, cache, 5*time.Minute).GetByID(ctx, id)

		require.NoError(t, err)
		assert.Equal(t, user, got)
		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("cache hit skips repository", func(t *testing.T) {
		repo, cache := new(mockUserRepo), new(mockCache)
		data, _ := json.Marshal(cachedUser{ID: id, Login: "jdoe", FirstName: "John", LastName: "Doe", CreatedAt: user.CreatedAt})
		cache.On("Get", ctx, key).Return(string(data), nil).Once()

		got, err := NewUserService(repo, cache, time.Minute).GetByID(ctx, id)

		require.NoError(t, err)
		assert.Equal(t, "John Doe", got.FullName())
		assert.True(t, user.CreatedAt.Equal(got.CreatedAt))
		repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("not found is not cached", func(t *testing.T) {
		repo, cache := new(mockUserRepo), new(mockCache)
		cache.On("Get", ctx, key).Return("", redis.Nil).Once()
		repo.On("GetByID", ctx, id).Return(nil, repository.ErrUserNotFound).Once()

		_, err := NewUserService(repo, cache, time.Minute).GetByID(ctx, id)

		assert.ErrorIs(t, err, repository.ErrUserNotFound)
		cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cache outage falls back to repository", func(t *testing.T) {
		repo, cache := new(mockUserRepo), new(mockCache)
		cache.On("Get", ctx, key).Return("", errors.New("connection refused")).Once()
		repo.On("GetByID", ctx, id).Return(user, nil).Once()
		cache.On("Set", ctx, key, mock.Anything, time.Minute).Return(errors.New("connection refused")).Once()

		got, err := NewUserService(repo, cache, time.Minute).GetByID(ctx, id)

		require.NoError(t, err)
		assert.Equal(t, user, got)
	})

	t.Run("nil cache", func(t *testing.T) {
		repo := new(mockUserRepo)
		repo.On("GetByID", ctx, id).Return(user, nil).Once()

		got, err := NewUserService(repo, nil, time.Minute).GetByID(ctx, id)

		require.NoError(t, err)
		assert.Equal(t, user, got)
	})
}

func TestUserService_MutationsInvalidateCache(t *testing.T) {
	ctx := context.Background()
	user := &model.User{ID: uuid.New(), Login: "jdoe"}
	keys := []string{"users:" + user.ID.String()}

	t.Run("update", func(t *testing.T) {
		repo, cache := new(mockUserRepo), new(mockCache)
		repo.On("Update", ctx, user).Return(nil).Once()
		cache.On("Del", ctx, keys).Return(nil).Once()

		assert.NoError(t, NewUserService(repo, cache, time.Minute).Update(ctx, user))
		cache.AssertExpectations(t)
	})

	t.Run("upsert reports created flag", func(t *testing.T) {
		repo, cache := new(mockUserRepo), new(mockCache)
		repo.On("Upsert", ctx, user).Return(true, nil).Once()
		cache.On("Del", ctx, keys).Return(nil).Once()

		created, err := NewUserService(repo, cache, time.Minute).Upsert(ctx, user)

		require.NoError(t, err)
		assert.True(t, created)
		cache.AssertExpectations(t)
	})

	t.Run("delete", func(t *testing.T) {
		repo, cache := new(mockUserRepo), new(mockCache)
		repo.On("Delete", ctx, user.ID).Return(nil).Once()
		cache.On("Del", ctx, keys).Return(nil).Once()

		assert.NoError(t, NewUserService(repo, cache, time.Minute).Delete(ctx, user.ID))
		cache.AssertExpectations(t)
	})

	t.Run("failed delete keeps cache", func(t *testing.T) {
		repo, cache := new(mockUserRepo), new(mockCache)
		repo.On("Delete", ctx, user.ID).Return(repository.ErrUserNotFound).Once()

		err := NewUserService(repo, cache, time.Minute).Delete(ctx, user.ID)

		assert.ErrorIs(t, err, repository.ErrUserNotFound)
		cache.AssertNotCalled(t, "Del", mock.Anything, mock.Anything)
	})

	t.Run("insert", func(t *testing.T) {
		repo, cache := new(mockUserRepo), new(mockCache)
		repo.On("Insert", ctx, user).Return(nil).Once()
		cache.On("Del", ctx, keys).Return(nil).Once()

		assert.NoError(t, NewUserService(repo, cache, time.Minute).Insert(ctx, user))
		cache.AssertExpectations(t)
	})
}

func TestUserService_ListPassesThrough(t *testing.T) {
	ctx := context.Background()
	repo := new(mockUserRepo)
	page := model.PageRequest{PageNumber: 1, PageSize: 10}
	want := &model.PagedUsers{TotalCount: 3, PageSize: 10, CurrentPage: 1}
	repo.On("List", ctx, page).Return(want, nil).Once()

	got, err := NewUserService(repo, new(mockCache), time.Minute).List(ctx, page)

	require.NoError(t, err)
	assert.Equal(t, want, got)
}
