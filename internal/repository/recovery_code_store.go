package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCodeNotFound is returned when a recovery code is unknown, expired or
// already consumed.
var ErrCodeNotFound = errors.New("recovery code not found")

// RecoveryCodeStore keeps single-use account recovery codes. Codes expire on
// their own and are consumed atomically, so a code can never be replayed.
type RecoveryCodeStore interface {
	Put(ctx context.Context, code, identityID string, ttl time.Duration) error
	// Consume returns the identity owning the code and deletes it in the
	// same operation.
	Consume(ctx context.Context, code string) (string, error)
}

type redisRecoveryCodeStore struct {
	client *redis.Client
}

// NewRecoveryCodeStore builds a Redis-backed store.
func NewRecoveryCodeStore(client *redis.Client) RecoveryCodeStore {
	return &redisRecoveryCodeStore{client: client}
}

const recoveryKeyPrefix = "recovery_code:"

func (s *redisRecoveryCodeStore) Put(ctx context.Context, code, identityID string, ttl time.Duration) error {
	return s.client.Set(ctx, recoveryKeyPrefix+code, identityID, ttl).Err()
}

func (s *redisRecoveryCodeStore) Consume(ctx context.Context, code string) (string, error) {
	identityID, err := s.client.GetDel(ctx, recoveryKeyPrefix+code).Result()
	if err == redis.Nil {
		return "", ErrCodeNotFound
	}
	if err != nil {
		return "", err
	}
	return identityID, nil
}
