package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/checho651/bfx-report/internal/db"
	"github.com/checho651/bfx-report/internal/httpclient"
)

//go:generate mockgen -destination=mocks/mock_validator.go -package=mocks github.com/checho651/bfx-report/internal/auth Validator,UserInfoFetcher

// Validator checks credentials and returns the profile they belong to.
// Rejected credentials yield an error wrapping ErrUnauthorized.
type Validator interface {
	Validate(ctx context.Context, creds Credentials) (UserInfo, error)
}

// UserInfoFetcher asks the remote API for the profile of credentials
type UserInfoFetcher interface {
	UserInfo(ctx context.Context, creds Credentials) (UserInfo, error)
}

// UserLookup finds a stored user by credentials
type UserLookup interface {
	GetUserByCredentials(ctx context.Context, apiKey, apiSecret, authToken string) (db.User, error)
}

type remoteValidator struct {
	fetcher UserInfoFetcher
}

// NewRemoteValidator validates credentials by fetching the user profile from
// the remote API. A 4xx answer means the credentials were rejected.
func NewRemoteValidator(fetcher UserInfoFetcher) Validator {
	return &remoteValidator{fetcher: fetcher}
}

func (v *remoteValidator) Validate(ctx context.Context, creds Credentials) (UserInfo, error) {
	if creds.IsEmpty() {
		return UserInfo{}, ErrUnauthorized
	}

	info, err := v.fetcher.UserInfo(ctx, creds)
	if err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) && httpErr.IsClientError() {
			return UserInfo{}, fmt.Errorf("%w: %s", ErrUnauthorized, httpErr.Message)
		}
		return UserInfo{}, fmt.Errorf("failed to fetch user info: %w", err)
	}
	return info, nil
}

type storeValidator struct {
	lookup UserLookup
}

// NewStoreValidator validates credentials against users already registered in
// the store. It never contacts the remote API and serves offline mode.
func NewStoreValidator(lookup UserLookup) Validator {
	return &storeValidator{lookup: lookup}
}

func (v *storeValidator) Validate(ctx context.Context, creds Credentials) (UserInfo, error) {
	if creds.IsEmpty() {
		return UserInfo{}, ErrUnauthorized
	}

	user, err := v.lookup.GetUserByCredentials(ctx, creds.APIKey, creds.APISecret, creds.AuthToken)
	if errors.Is(err, sql.ErrNoRows) {
		return UserInfo{}, ErrUnauthorized
	}
	if err != nil {
		return UserInfo{}, fmt.Errorf("failed to look up user: %w", err)
	}
	if !user.Active {
		return UserInfo{}, fmt.Errorf("%w: user is not active", ErrUnauthorized)
	}

	return UserInfo{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.Username,
		Timezone: user.Timezone,
	}, nil
}

type cacheEntry struct {
	info    UserInfo
	expires time.Time
}

// CachingValidator remembers successful validations for a while so that every
// reporting request does not cost a remote round trip. Failures are not cached.
type CachingValidator struct {
	next Validator
	ttl  time.Duration
	now  func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewCachingValidator wraps next with a cache of the given ttl
func NewCachingValidator(next Validator, ttl time.Duration) *CachingValidator {
	return &CachingValidator{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// Validate implements Validator
func (c *CachingValidator) Validate(ctx context.Context, creds Credentials) (UserInfo, error) {
	if creds.IsEmpty() {
		return UserInfo{}, ErrUnauthorized
	}

	key := creds.fingerprint()
	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()
	if ok && c.now().Before(entry.expires) {
		return entry.info, nil
	}

	info, err := c.next.Validate(ctx, creds)
	if err != nil {
		c.Forget(creds)
		return UserInfo{}, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{info: info, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return info, nil
}

// Forget drops the cached result of creds
func (c *CachingValidator) Forget(creds Credentials) {
	c.mu.Lock()
	delete(c.entries, creds.fingerprint())
	c.mu.Unlock()
}
