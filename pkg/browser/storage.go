package browser

import (
	"fmt"

	"github.com/vanderheijden86/storytour/pkg/persist"
)

// LocalStorage is a persist.Store backed by the page's window.localStorage.
// Pages where storage throws (opaque origins, disabled storage) report
// errors, so a Chain falls through to the next backend.
type LocalStorage struct {
	page *Page
}

// NewLocalStorage returns a store over the page's origin.
func NewLocalStorage(p *Page) *LocalStorage {
	return &LocalStorage{page: p}
}

// Get implements persist.Store.
func (s *LocalStorage) Get(key string) (string, error) {
	var v *string
	if err := s.page.eval(fmt.Sprintf(`window.localStorage.getItem(%s)`, jsString(key)), &v); err != nil {
		return "", fmt.Errorf("localStorage get %q: %w", key, err)
	}
	if v == nil {
		return "", persist.ErrNotFound
	}
	return *v, nil
}

// Set implements persist.Store.
func (s *LocalStorage) Set(key, value string) error {
	script := fmt.Sprintf(`window.localStorage.setItem(%s, %s)`, jsString(key), jsString(value))
	if err := s.page.eval(script, nil); err != nil {
		return fmt.Errorf("localStorage set %q: %w", key, err)
	}
	return nil
}

// Remove implements persist.Store.
func (s *LocalStorage) Remove(key string) error {
	if err := s.page.eval(fmt.Sprintf(`window.localStorage.removeItem(%s)`, jsString(key)), nil); err != nil {
		return fmt.Errorf("localStorage remove %q: %w", key, err)
	}
	return nil
}
