package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// snapshotKey is the single fixed key the whole collection lives under.
const snapshotKey = "atelier:projects"

// RedisStore keeps the project collection as one JSON blob in redis.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Load(ctx context.Context) ([]Project, error) {
	data, err := s.client.Get(ctx, snapshotKey).Result()
	if err == redis.Nil {
		return []Project{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	var projects []Project
	if err := json.Unmarshal([]byte(data), &projects); err != nil {
		// Corrupt content is treated as empty, not fatal.
		log.Printf("[warn] archive snapshot is corrupt, starting empty: %v", err)
		return []Project{}, nil
	}
	return projects, nil
}

func (s *RedisStore) Save(ctx context.Context, projects []Project) error {
	data, err := json.Marshal(projects)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, snapshotKey, data, 0).Err(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}
