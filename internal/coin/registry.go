// Package coin provides coin tokens, their registry and the placement engine.
package coin

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kyiku/coin-gacha-back/internal/geometry"
)

// Token represents one placed, interactive coin.
type Token struct {
	ID        string         `json:"id"`
	Position  geometry.Point `json:"position"`
	CreatedAt time.Time      `json:"-"`
}

// NewToken creates a token at the given page position.
func NewToken(pos geometry.Point) *Token {
	return &Token{
		ID:        uuid.New().String(),
		Position:  pos,
		CreatedAt: time.Now(),
	}
}

// RegistryObserver is notified after the registry changes.
type RegistryObserver interface {
	TokensAdded(tokens []*Token)
	TokenRemoved(token *Token)
	TokensCleared(tokens []*Token)
}

// Registry holds all live tokens in insertion order.
type Registry struct {
	tokens    []*Token
	mu        sync.RWMutex
	observers []RegistryObserver
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tokens: make([]*Token, 0),
	}
}

// Observe registers an observer.
func (r *Registry) Observe(o RegistryObserver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, o)
}

// Add appends tokens to the registry.
func (r *Registry) Add(tokens ...*Token) {
	if len(tokens) == 0 {
		return
	}

	r.mu.Lock()
	r.tokens = append(r.tokens, tokens...)
	observers := r.observers
	r.mu.Unlock()

	for _, o := range observers {
		o.TokensAdded(tokens)
	}
}

// Remove deletes a token by ID.
// Returns nil and false if the token does not exist.
func (r *Registry) Remove(id string) (*Token, bool) {
	r.mu.Lock()
	var removed *Token
	for i, t := range r.tokens {
		if t.ID == id {
			removed = t
			r.tokens = append(r.tokens[:i], r.tokens[i+1:]...)
			break
		}
	}
	observers := r.observers
	r.mu.Unlock()

	if removed == nil {
		return nil, false
	}
	for _, o := range observers {
		o.TokenRemoved(removed)
	}
	return removed, true
}

// Get retrieves a token by ID.
func (r *Registry) Get(id string) (*Token, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, t := range r.tokens {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}

// Tokens returns a copy of the live tokens in insertion order.
func (r *Registry) Tokens() []*Token {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Token, len(r.tokens))
	copy(out, r.tokens)
	return out
}

// Positions returns the stored positions of all live tokens.
func (r *Registry) Positions() []geometry.Point {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]geometry.Point, 0, len(r.tokens))
	for _, t := range r.tokens {
		out = append(out, t.Position)
	}
	return out
}

// Len returns the number of live tokens.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tokens)
}

// Clear removes every token and returns the removed ones.
func (r *Registry) Clear() []*Token {
	r.mu.Lock()
	removed := r.tokens
	r.tokens = make([]*Token, 0)
	observers := r.observers
	r.mu.Unlock()

	for _, o := range observers {
		o.TokensCleared(removed)
	}
	return removed
}
