package api

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/savoria-app/storefront-client/pkg/logger"
	"github.com/savoria-app/storefront-client/pkg/storage"
)

const tokenStorageKey = "auth_token"

type blobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// TokenStore holds the current bearer token in memory and mirrors it to
// device-local storage. The in-memory value is authoritative; persistence is
// best effort and failures are only logged.
type TokenStore struct {
	mu    sync.RWMutex
	token string
	store blobStore
	logg  *logger.Logger
}

func NewTokenStore(store blobStore, logg *logger.Logger) *TokenStore {
	return &TokenStore{store: store, logg: logg}
}

// Load restores a previously persisted token into memory. A missing or
// unreadable blob resolves to no token.
func (t *TokenStore) Load(ctx context.Context) {
	value, err := t.store.Get(ctx, tokenStorageKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) && t.logg != nil {
			t.logg.Error(ctx, "loading persisted token", err)
		}
		return
	}
	t.mu.Lock()
	t.token = strings.TrimSpace(string(value))
	t.mu.Unlock()
}

// Current returns the in-memory token; empty means unauthenticated.
func (t *TokenStore) Current() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.token
}

// Set replaces the token and schedules the write-through.
func (t *TokenStore) Set(ctx context.Context, token string) {
	t.mu.Lock()
	t.token = token
	t.mu.Unlock()

	if err := t.store.Put(ctx, tokenStorageKey, []byte(token)); err != nil && t.logg != nil {
		t.logg.Error(ctx, "persisting token", err)
	}
}

// Clear drops the token from memory and removes the persisted copy.
func (t *TokenStore) Clear(ctx context.Context) {
	t.mu.Lock()
	t.token = ""
	t.mu.Unlock()

	if err := t.store.Delete(ctx, tokenStorageKey); err != nil && t.logg != nil {
		t.logg.Error(ctx, "clearing persisted token", err)
	}
}
