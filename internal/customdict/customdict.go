package customdict

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const DefaultKey = "ngramcorrector:custom_words"

// CustomDict stores custom dictionary words in a Redis set.
type CustomDict struct {
	client redis.Cmdable
	key    string
}

// New creates a CustomDict on the provided Redis client. An empty key
// selects DefaultKey.
func New(client redis.Cmdable, key string) *CustomDict {
	if key == "" {
		key = DefaultKey
	}
	return &CustomDict{client: client, key: key}
}

func (cd *CustomDict) Key() string { return cd.key }

// Ping checks that Redis answers.
func (cd *CustomDict) Ping(ctx context.Context) error {
	if err := cd.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Add inserts a word into the custom dictionary.
func (cd *CustomDict) Add(ctx context.Context, word string) error {
	return cd.client.SAdd(ctx, cd.key, word).Err()
}

// Remove deletes a word from the custom dictionary.
func (cd *CustomDict) Remove(ctx context.Context, word string) error {
	return cd.client.SRem(ctx, cd.key, word).Err()
}

// Has reports whether word is in the custom dictionary.
func (cd *CustomDict) Has(ctx context.Context, word string) (bool, error) {
	return cd.client.SIsMember(ctx, cd.key, word).Result()
}

// All returns all words stored in the custom dictionary.
func (cd *CustomDict) All(ctx context.Context) ([]string, error) {
	return cd.client.SMembers(ctx, cd.key).Result()
}
