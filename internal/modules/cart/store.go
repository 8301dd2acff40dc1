package cart

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore keeps the per-session checkout state that outlives a single
// request: the session's cart number, its resolved guest customer ref, and
// flash error messages for browser-mode responses.
type SessionStore interface {
	CartNumber(ctx context.Context, sessionID string) (string, error)
	BindCartNumber(ctx context.Context, sessionID, number string) error
	ForgetCartNumber(ctx context.Context, sessionID string) error

	CustomerRef(ctx context.Context, sessionID string) (string, error)
	BindCustomerRef(ctx context.Context, sessionID, ref string) error
	ForgetCustomerRef(ctx context.Context, sessionID string) error

	SetFlash(ctx context.Context, sessionID, message string) error
	// Flash returns and clears the session's flash message.
	Flash(ctx context.Context, sessionID string) (string, error)
}

const (
	bindingTTL = 30 * 24 * time.Hour
	flashTTL   = 10 * time.Minute
)

type redisStore struct{ client *redis.Client }

// NewRedisStore creates a redis-backed session store.
func NewRedisStore(client *redis.Client) SessionStore { return &redisStore{client: client} }

func (s *redisStore) CartNumber(ctx context.Context, sessionID string) (string, error) {
	return s.get(ctx, "checkout:cart:"+sessionID)
}

func (s *redisStore) BindCartNumber(ctx context.Context, sessionID, number string) error {
	return s.client.Set(ctx, "checkout:cart:"+sessionID, number, bindingTTL).Err()
}

func (s *redisStore) ForgetCartNumber(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, "checkout:cart:"+sessionID).Err()
}

func (s *redisStore) CustomerRef(ctx context.Context, sessionID string) (string, error) {
	return s.get(ctx, "checkout:customer:"+sessionID)
}

func (s *redisStore) BindCustomerRef(ctx context.Context, sessionID, ref string) error {
	return s.client.Set(ctx, "checkout:customer:"+sessionID, ref, bindingTTL).Err()
}

func (s *redisStore) ForgetCustomerRef(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, "checkout:customer:"+sessionID).Err()
}

func (s *redisStore) SetFlash(ctx context.Context, sessionID, message string) error {
	return s.client.Set(ctx, "checkout:flash:"+sessionID, message, flashTTL).Err()
}

func (s *redisStore) Flash(ctx context.Context, sessionID string) (string, error) {
	msg, err := s.client.GetDel(ctx, "checkout:flash:"+sessionID).Result()
	if err == redis.Nil {
		return "", nil
	}
	return msg, err
}

func (s *redisStore) get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return v, err
}
