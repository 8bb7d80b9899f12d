package gateway

import (
	"sync/atomic"
	"time"
)

// Config addresses one gateway session.
type Config struct {
	BaseURL            string
	Session            string
	SecretKey          string
	Token              string
	Timeout            time.Duration
	DefaultCountryCode string
}

// TokenStore holds the live gateway configuration. Runs take a Snapshot at
// start so a token rotated mid-run only affects the next run.
type TokenStore struct {
	cur atomic.Pointer[Config]
}

func NewTokenStore(cfg Config) *TokenStore {
	s := &TokenStore{}
	s.cur.Store(&cfg)
	return s
}

func (s *TokenStore) Snapshot() Config {
	return *s.cur.Load()
}

func (s *TokenStore) SetToken(token string) {
	for {
		old := s.cur.Load()
		next := *old
		next.Token = token
		if s.cur.CompareAndSwap(old, &next) {
			return
		}
	}
}
