package persist

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

// NeverExpires is the expiry written for entries without a TTL. It matches
// the "31 Dec 9999" cookie the browser fallback used.
var NeverExpires = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

type fileEntry struct {
	Value   string    `json:"value"`
	Expires time.Time `json:"expires"`
}

type fileDoc struct {
	Entries map[string]fileEntry `json:"entries"`
}

// FileStore is a cookie-like store backed by a single JSON document.
// Every operation rereads the file so several processes can share it.
type FileStore struct {
	path string
	ttl  time.Duration
	now  func() time.Time
	mu   sync.Mutex
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithTTL makes entries expire ttl after they are written.
func WithTTL(ttl time.Duration) FileOption {
	return func(f *FileStore) {
		f.ttl = ttl
	}
}

// WithFileClock sets the clock used for expiry.
func WithFileClock(now func() time.Time) FileOption {
	return func(f *FileStore) {
		f.now = now
	}
}

// NewFileStore returns a store writing to path. The file and its directory
// are created on first write.
func NewFileStore(path string, opts ...FileOption) *FileStore {
	f := &FileStore{path: path, now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

// Get implements Store.
func (f *FileStore) Get(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return "", err
	}
	e, ok := doc.Entries[key]
	if !ok || !f.now().Before(e.Expires) {
		return "", ErrNotFound
	}
	return e.Value, nil
}

// Set implements Store.
func (f *FileStore) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return err
	}
	expires := NeverExpires
	if f.ttl > 0 {
		expires = f.now().Add(f.ttl).UTC()
	}
	doc.Entries[key] = fileEntry{Value: value, Expires: expires}
	return f.save(doc)
}

// Remove implements Store.
func (f *FileStore) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := doc.Entries[key]; !ok {
		return nil
	}
	delete(doc.Entries, key)
	return f.save(doc)
}

func (f *FileStore) load() (fileDoc, error) {
	doc := fileDoc{Entries: make(map[string]fileEntry)}
	if f.path == "" {
		return doc, fmt.Errorf("%w: file store has no path", ErrUnavailable)
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return doc, nil
		}
		return doc, fmt.Errorf("reading %s: %w", f.path, err)
	}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("parsing %s: %w", f.path, err)
	}
	if doc.Entries == nil {
		doc.Entries = make(map[string]fileEntry)
	}
	return doc, nil
}

func (f *FileStore) save(doc fileDoc) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling store: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing store: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing store: %w", err)
	}
	return nil
}
