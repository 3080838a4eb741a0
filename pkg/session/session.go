// Package session provides the admin session store: opaque HMAC-signed tokens
// with a TTL, revocable server-side. The backing cache holds the live session
// ids, so sessions expire with the cache entry and revocation is immediate.
package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"hash"
	"time"

	"github.com/google/uuid"

	"movienight-server/pkg/cache"
)

// Store is the authenticated-session abstraction injected into the
// authorization middleware.
type Store interface {
	Create(ctx context.Context) (string, error)
	Validate(ctx context.Context, token string) bool
	Revoke(ctx context.Context, token string) error
}

const keyPrefix = "session:"

// payload layout: expiry unix seconds (8 bytes) + session uuid (16 bytes)
const payloadLen = 8 + 16

// CacheStore implements Store over a keyed cache with expiry.
// Safe for concurrent use.
type CacheStore struct {
	cache cache.Cache
	key   []byte
	ttl   time.Duration
	h     func() hash.Hash
}

func NewCacheStore(c cache.Cache, secret []byte, ttl time.Duration) *CacheStore {
	return &CacheStore{cache: c, key: append([]byte(nil), secret...), ttl: ttl, h: sha256.New}
}

func (s *CacheStore) Create(ctx context.Context) (string, error) {
	id := uuid.New()
	exp := time.Now().Add(s.ttl)
	payload := make([]byte, payloadLen)
	binary.BigEndian.PutUint64(payload[0:8], uint64(exp.Unix()))
	copy(payload[8:], id[:])
	if err := s.cache.Set(ctx, keyPrefix+id.String(), "1", s.ttl); err != nil {
		return "", err
	}
	return s.seal(payload), nil
}

func (s *CacheStore) Validate(ctx context.Context, token string) bool {
	id, exp, err := s.parse(token)
	if err != nil {
		return false
	}
	if time.Now().Unix() > exp {
		return false
	}
	_, ok := s.cache.Get(ctx, keyPrefix+id.String())
	return ok
}

func (s *CacheStore) Revoke(ctx context.Context, token string) error {
	id, _, err := s.parse(token)
	if err != nil {
		return err
	}
	return s.cache.Delete(ctx, keyPrefix+id.String())
}

func (s *CacheStore) parse(token string) (uuid.UUID, int64, error) {
	payload, err := s.open(token)
	if err != nil {
		return uuid.UUID{}, 0, err
	}
	exp := int64(binary.BigEndian.Uint64(payload[0:8]))
	id, err := uuid.FromBytes(payload[8:payloadLen])
	if err != nil {
		return uuid.UUID{}, 0, err
	}
	return id, exp, nil
}

// seal signs the payload and returns a base64url token payload||sig.
func (s *CacheStore) seal(payload []byte) string {
	mac := hmac.New(s.h, s.key)
	mac.Write(payload)
	sig := mac.Sum(nil)
	buf := append(payload, sig...)
	return base64.RawURLEncoding.EncodeToString(buf)
}

// open verifies the token signature and returns the payload bytes.
func (s *CacheStore) open(token string) ([]byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, err
	}
	if len(raw) != payloadLen+32 {
		return nil, errors.New("invalid_token_length")
	}
	payload := raw[:payloadLen]
	sig := raw[payloadLen:]
	mac := hmac.New(s.h, s.key)
	mac.Write(payload)
	expected := mac.Sum(nil)
	if !hmac.Equal(sig, expected) {
		return nil, errors.New("invalid_token_signature")
	}
	return payload, nil
}
