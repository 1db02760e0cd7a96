package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// OTPStore keeps one-time phone codes with automatic expiry. Codes are
// single use: a successful verify deletes the key.
type OTPStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewOTPStore(client *redis.Client) *OTPStore {
	return &OTPStore{client: client, ttl: 5 * time.Minute}
}

var ErrOTPUnavailable = errors.New("otp store unavailable")

func otpKey(phone string) string { return "pego:otp:" + phone }

func (s *OTPStore) Put(ctx context.Context, phone, code string) error {
	if s.client == nil {
		return ErrOTPUnavailable
	}
	return s.client.Set(ctx, otpKey(phone), code, s.ttl).Err()
}

// Verify reports whether the code matches and consumes it on success.
func (s *OTPStore) Verify(ctx context.Context, phone, code string) (bool, error) {
	if s.client == nil {
		return false, ErrOTPUnavailable
	}
	stored, err := s.client.Get(ctx, otpKey(phone)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if stored != code {
		return false, nil
	}
	_ = s.client.Del(ctx, otpKey(phone)).Err()
	return true, nil
}
