// file: service/cache.go

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"go-users-api/model"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ICacheClient is the subset of *redis.Client used for caching users.
type ICacheClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

var _ ICacheClient = (*redis.Client)(nil)

// cachedUser is the cache encoding; model.User has no json tags.
type cachedUser struct {
	ID        uuid.UUID `json:"id"`
	Login     string    `json:"login"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func userCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("users:%s", id)
}

func encodeCachedUser(user *model.User) ([]byte, error) {
	return json.Marshal(cachedUser{
		ID:        user.ID,
		Login:     user.Login,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	})
}

func decodeCachedUser(data string) (*model.User, error) {
	var cu cachedUser
	if err := json.Unmarshal([]byte(data), &cu); err != nil {
		return nil, err
	}
	return &model.User{
		ID:        cu.ID,
		Login:     cu.Login,
		FirstName: cu.FirstName,
		LastName:  cu.LastName,
		CreatedAt: cu.CreatedAt,
		UpdatedAt: cu.UpdatedAt,
	}, nil
}
