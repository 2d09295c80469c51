package disk

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"consolenav/internal/util/jsonutil"
)

// ErrNilStore is returned by operations on a nil store that must report
// failure instead of silently doing nothing.
var ErrNilStore = errors.New("store is nil")

type Config struct {
	Root       string
	IndexFile  string
	MaxEntries int
	MaxBytes   int64
	TTL        time.Duration
}

type diskEntry struct {
	File       string    `json:"file"`
	Size       int64     `json:"size"`
	ExpiresAt  time.Time `json:"expires_at"`
	AccessedAt time.Time `json:"accessed_at"`
}

type diskIndex struct {
	Entries map[string]diskEntry `json:"entries"`
}

// Store is the persistence collaborator for session state: string keys map to
// byte values on disk, with an index file driving TTL and LRU eviction.
type Store struct {
	mu sync.Mutex

	dataDir   string
	indexPath string

	maxEntries int
	maxBytes   int64
	ttl        time.Duration

	totalBytes int64
	entries    map[string]diskEntry
}

func NewStore(cfg Config) (*Store, error) {
	root := strings.TrimSpace(cfg.Root)
	if root == "" {
		return nil, fmt.Errorf("root is required")
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 4096
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	indexFile := strings.TrimSpace(cfg.IndexFile)
	if indexFile == "" {
		indexFile = "index.json"
	}

	s := &Store{
		dataDir:    filepath.Join(root, "data"),
		indexPath:  filepath.Join(root, indexFile),
		maxEntries: cfg.MaxEntries,
		maxBytes:   cfg.MaxBytes,
		ttl:        cfg.TTL,
		entries:    map[string]diskEntry{},
	}
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return nil, err
	}
	if err := s.loadIndex(); err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.cleanupAndEvictLocked(time.Now()); err != nil {
		return nil, err
	}
	if err := s.persistIndexLocked(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	if s == nil {
		return nil, false, ErrNilStore
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false, fmt.Errorf("key is required")
	}

	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if now.After(ent.ExpiresAt) {
		s.removeEntryLocked(key, ent)
		_ = s.persistIndexLocked()
		return nil, false, nil
	}
	raw, err := os.ReadFile(filepath.Join(s.dataDir, ent.File))
	if err != nil {
		if os.IsNotExist(err) {
			s.removeEntryLocked(key, ent)
			_ = s.persistIndexLocked()
			return nil, false, nil
		}
		return nil, false, err
	}
	ent.AccessedAt = now
	s.entries[key] = ent
	if err := s.persistIndexLocked(); err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	if s == nil {
		return ErrNilStore
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("key is required")
	}

	now := time.Now()
	file := hashedName(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[key]; ok {
		s.totalBytes -= old.Size
	}
	if err := os.WriteFile(filepath.Join(s.dataDir, file), value, 0o600); err != nil {
		return err
	}
	s.entries[key] = diskEntry{
		File:       file,
		Size:       int64(len(value)),
		ExpiresAt:  now.Add(s.ttl),
		AccessedAt: now,
	}
	s.totalBytes += int64(len(value))

	if err := s.cleanupAndEvictLocked(now); err != nil {
		return err
	}
	return s.persistIndexLocked()
}

// GetJSON decodes the value stored under key into out.
func (s *Store) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) SetJSON(ctx context.Context, key string, value any) error {
	raw, err := jsonutil.MarshalNoEscape(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}

func (s *Store) Delete(_ context.Context, key string) error {
	if s == nil {
		return nil
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if ent, ok := s.entries[key]; ok {
		s.removeEntryLocked(key, ent)
		return s.persistIndexLocked()
	}
	return nil
}

// DeletePrefix removes every key starting with one of prefixes and reports how
// many were removed.
func (s *Store) DeletePrefix(_ context.Context, prefixes ...string) (int, error) {
	if s == nil || len(prefixes) == 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, ent := range s.entries {
		for _, p := range prefixes {
			if p != "" && strings.HasPrefix(key, p) {
				s.removeEntryLocked(key, ent)
				removed++
				break
			}
		}
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, s.persistIndexLocked()
}

// Keys lists live keys in sorted order.
func (s *Store) Keys() []string {
	if s == nil {
		return nil
	}
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.entries))
	for key, ent := range s.entries {
		if !now.After(ent.ExpiresAt) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

func (s *Store) Clear(_ context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ent := range s.entries {
		_ = os.Remove(filepath.Join(s.dataDir, ent.File))
	}
	s.entries = map[string]diskEntry{}
	s.totalBytes = 0
	return s.persistIndexLocked()
}

func (s *Store) loadIndex() error {
	raw, err := os.ReadFile(s.indexPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var idx diskIndex
	if err := json.Unmarshal(raw, &idx); err != nil {
		return err
	}
	if idx.Entries == nil {
		idx.Entries = map[string]diskEntry{}
	}
	s.entries = idx.Entries
	s.totalBytes = 0
	for _, ent := range s.entries {
		s.totalBytes += ent.Size
	}
	return nil
}

func (s *Store) cleanupAndEvictLocked(now time.Time) error {
	for key, ent := range s.entries {
		if now.After(ent.ExpiresAt) {
			s.removeEntryLocked(key, ent)
			continue
		}
		if _, err := os.Stat(filepath.Join(s.dataDir, ent.File)); err != nil {
			if os.IsNotExist(err) {
				s.removeEntryLocked(key, ent)
				continue
			}
			return err
		}
	}

	for s.needsEvictionLocked() {
		key, ent, ok := s.leastRecentlyUsedLocked()
		if !ok {
			break
		}
		s.removeEntryLocked(key, ent)
	}
	return nil
}

func (s *Store) needsEvictionLocked() bool {
	if len(s.entries) == 0 {
		return false
	}
	if len(s.entries) > s.maxEntries {
		return true
	}
	return s.maxBytes > 0 && s.totalBytes > s.maxBytes
}

func (s *Store) leastRecentlyUsedLocked() (string, diskEntry, bool) {
	var (
		oldestKey string
		oldest    diskEntry
		found     bool
	)
	for key, ent := range s.entries {
		if !found || ent.AccessedAt.Before(oldest.AccessedAt) ||
			(ent.AccessedAt.Equal(oldest.AccessedAt) && key < oldestKey) {
			oldestKey, oldest, found = key, ent, true
		}
	}
	return oldestKey, oldest, found
}

func (s *Store) removeEntryLocked(key string, ent diskEntry) {
	delete(s.entries, key)
	s.totalBytes -= ent.Size
	if s.totalBytes < 0 {
		s.totalBytes = 0
	}
	_ = os.Remove(filepath.Join(s.dataDir, ent.File))
}

func (s *Store) persistIndexLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.indexPath), 0o755); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(diskIndex{Entries: s.entries}, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.indexPath + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.indexPath)
}

func hashedName(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:]) + ".json"
}
