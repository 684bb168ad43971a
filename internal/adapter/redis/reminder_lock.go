package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/Temutjin2k/fieldtrack/internal/domain/types"

	goredis "github.com/redis/go-redis/v9"
)

const reminderKeyPrefix = "reminder:"

// ReminderLock marks reminders as sent so each is delivered by one instance only.
type ReminderLock struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewReminderLock(client *goredis.Client, ttl time.Duration) *ReminderLock {
	return &ReminderLock{client: client, ttl: ttl}
}

// Acquire returns true for the first caller of key within the lock TTL.
func (l *ReminderLock) Acquire(ctx context.Context, key string) (bool, error) {
	ok, err := l.client.SetNX(ctx, reminderKeyPrefix+key, time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: reminder lock %s: %v", types.ErrUnavailable, key, err)
	}
	return ok, nil
}

// Release drops key so a failed delivery can be retried.
func (l *ReminderLock) Release(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, reminderKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("%w: release reminder lock %s: %v", types.ErrUnavailable, key, err)
	}
	return nil
}
