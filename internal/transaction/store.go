package transaction

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-kasir/internal/cart"
)

// ErrDraftNotFound indicates the draft expired or never existed.
var ErrDraftNotFound = errors.New("transaction: draft not found")

const draftKeyPrefix = "kasir:draft:"

// Store keeps transaction drafts in Redis as JSON blobs. Every save refreshes
// the TTL, so an actively edited draft stays alive while an abandoned one
// expires on its own.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore constructs a draft store.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Store{client: client, ttl: ttl}
}

// Get loads a draft by id.
func (s *Store) Get(ctx context.Context, id string) (Draft, error) {
	if s == nil || s.client == nil {
		return Draft{}, errors.New("transaction: draft store not configured")
	}
	data, err := s.client.Get(ctx, draftKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Draft{}, ErrDraftNotFound
		}
		return Draft{}, err
	}
	var d Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return Draft{}, err
	}
	if d.Cart == nil {
		d.Cart = cart.New()
	}
	return d, nil
}

// Save stores the draft and refreshes its TTL.
func (s *Store) Save(ctx context.Context, d Draft) error {
	if s == nil || s.client == nil {
		return errors.New("transaction: draft store not configured")
	}
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, draftKeyPrefix+d.ID, data, s.ttl).Err()
}

// Delete removes a draft. Deleting an absent draft is a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	if s == nil || s.client == nil {
		return errors.New("transaction: draft store not configured")
	}
	return s.client.Del(ctx, draftKeyPrefix+id).Err()
}
