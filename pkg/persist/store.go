// Package persist provides the key/value stores that remember tour
// completion across sessions.
//
// A Store is deliberately small: get, set, remove. Real environments lose
// storage in different ways (private browsing, read-only home
// directories, locked databases), so stores are usually combined in a
// Chain that tries each backend in order.
package persist

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned by Get when the key is absent.
	ErrNotFound = errors.New("key not found")
	// ErrUnavailable is returned when a backend cannot be used at all.
	ErrUnavailable = errors.New("storage unavailable")
)

// Store is a string key/value store.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
}

// Chain tries an ordered list of backends. Get returns the first value
// found, skipping backends that fail. Set stops at the first backend that
// accepts the write. Remove is applied to every backend so a reset also
// clears values written to fallbacks.
type Chain struct {
	backends []Store
}

// NewChain returns a chain over the given backends, in priority order.
// Nil backends are dropped.
func NewChain(backends ...Store) *Chain {
	c := &Chain{}
	for _, b := range backends {
		if b != nil {
			c.backends = append(c.backends, b)
		}
	}
	return c
}

// Len returns the number of backends.
func (c *Chain) Len() int {
	return len(c.backends)
}

// Get implements Store.
func (c *Chain) Get(key string) (string, error) {
	var errs []error
	notFound := false
	for _, b := range c.backends {
		v, err := b.Get(key)
		switch {
		case err == nil:
			return v, nil
		case errors.Is(err, ErrNotFound):
			notFound = true
		default:
			errs = append(errs, err)
		}
	}
	if notFound || len(c.backends) == 0 {
		return "", ErrNotFound
	}
	return "", unavailable(errs)
}

// Set implements Store.
func (c *Chain) Set(key, value string) error {
	var errs []error
	for _, b := range c.backends {
		err := b.Set(key, value)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	return unavailable(errs)
}

// Remove implements Store. Every backend is cleared. A backend that fails
// to remove the key but still returns it from Get keeps the key readable
// through the chain, and Remove reports ErrUnavailable naming it.
func (c *Chain) Remove(key string) error {
	var errs []error
	removed := false
	var stuck []string
	for i, b := range c.backends {
		err := b.Remove(key)
		if err == nil {
			removed = true
			continue
		}
		errs = append(errs, err)
		if _, getErr := b.Get(key); getErr == nil {
			stuck = append(stuck, fmt.Sprintf("backend %d: %v", i, err))
		}
	}
	if len(stuck) > 0 {
		return fmt.Errorf("%w: %q still stored (%s)", ErrUnavailable, key, strings.Join(stuck, "; "))
	}
	if removed {
		return nil
	}
	return unavailable(errs)
}

func unavailable(errs []error) error {
	if len(errs) == 0 {
		return fmt.Errorf("%w: no backends configured", ErrUnavailable)
	}
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return fmt.Errorf("%w: %s", ErrUnavailable, strings.Join(msgs, "; "))
}
