// file: service/user_service.go

package service

import (
	"context"
	"errors"
	"go-users-api/logger"
	"go-users-api/model"
	"go-users-api/repository"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// UserService decorates a user repository with a cache-aside lookup by id.
// It satisfies repository.IUserRepository so handlers stay unaware of the cache.
type UserService struct {
	repo  repository.IUserRepository
	cache ICacheClient
	ttl   time.Duration
}

var _ repository.IUserRepository = (*UserService)(nil)

// NewUserService wires the cache in front of repo. A nil cache disables caching.
func NewUserService(repo repository.IUserRepository, cache ICacheClient, ttl time.Duration) *UserService {
	return &UserService{
		repo:  repo,
		cache: cache,
		ttl:   ttl,
	}
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if s.cache == nil {
		return s.repo.GetByID(ctx, id)
	}
	key := userCacheKey(id)

	// 1. Try the cache.
	cached, err := s.cache.Get(ctx, key).Result()
	if err == nil {
		if user, err := decodeCachedUser(cached); err == nil {
			return user, nil
		}
		logger.Log.WithField("key", key).Warn("Discarding undecodable cache entry")
	} else if !errors.Is(err, redis.Nil) {
		logger.Log.WithError(err).WithField("key", key).Warn("Cache read failed, falling back to repository")
	}

	// 2. Cache miss.
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// 3. Populate for later requests.
	if data, err := encodeCachedUser(user); err == nil {
		if err := s.cache.Set(ctx, key, data, s.ttl).Err(); err != nil {
			logger.Log.WithError(err).WithField("key", key).Warn("Cache write failed")
		}
	}
	return user, nil
}

func (s *UserService) Insert(ctx context.Context, user *model.User) error {
	if err := s.repo.Insert(ctx, user); err != nil {
		return err
	}
	s.invalidate(ctx, user.ID)
	return nil
}

func (s *UserService) Update(ctx context.Context, user *model.User) error {
	if err := s.repo.Update(ctx, user); err != nil {
		return err
	}
	s.invalidate(ctx, user.ID)
	return nil
}

func (s *UserService) Upsert(ctx context.Context, user *model.User) (bool, error) {
	created, err := s.repo.Upsert(ctx, user)
	if err != nil {
		return false, err
	}
	s.invalidate(ctx, user.ID)
	return created, nil
}

func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// List is never cached; pages shift with every write.
func (s *UserService) List(ctx context.Context, page model.PageRequest) (*model.PagedUsers, error) {
	return s.repo.List(ctx, page)
}

func (s *UserService) invalidate(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	key := userCacheKey(id)
	if err := s.cache.Del(ctx, key).Err(); err != nil {
		logger.Log.WithError(err).WithField("key", key).Warn("Cache invalidation failed")
	}
}
