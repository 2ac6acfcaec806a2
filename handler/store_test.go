package handler

import (
	"context"
	"go-users-api/model"
	"go-users-api/repository"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryStore is an in-memory repository.IUserRepository for handler tests.
// Users are listed in insertion order.
type memoryStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]model.User
	order []uuid.UUID
}

var _ repository.IUserRepository = (*memoryStore)(nil)

func newMemoryStore() *memoryStore {
	return &memoryStore{users: map[uuid.UUID]model.User{}}
}

func (s *memoryStore) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (s *memoryStore) Insert(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = *user
	s.order = append(s.order, user.ID)
	return nil
}

func (s *memoryStore) Update(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.users[user.ID]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.CreatedAt = old.CreatedAt
	user.UpdatedAt = time.Now()
	s.users[user.ID] = *user
	return nil
}

func (s *memoryStore) Upsert(_ context.Context, user *model.User) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	old, exists := s.users[user.ID]
	if exists {
		user.CreatedAt = old.CreatedAt
	} else {
		user.CreatedAt = now
		s.order = append(s.order, user.ID)
	}
	user.UpdatedAt = now
	s.users[user.ID] = *user
	return !exists, nil
}

func (s *memoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(s.users, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *memoryStore) List(_ context.Context, page model.PageRequest) (*model.PagedUsers, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := []*model.User{}
	for i := page.Offset(); i < len(s.order) && len(items) < page.PageSize; i++ {
		u := s.users[s.order[i]]
		items = append(items, &u)
	}
	return &model.PagedUsers{
		Items:       items,
		TotalCount:  int64(len(s.order)),
		PageSize:    page.PageSize,
		CurrentPage: page.PageNumber,
	}, nil
}
