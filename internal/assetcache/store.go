package assetcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/h2non/filetype"

	"zenstudio/internal/logging"
	"zenstudio/internal/media/wav"
	"zenstudio/internal/services"
)

// Scheme prefixes every URI handed out by the store.
const Scheme = "asset://"

const audioKind = "audio"

// Store manages the on-disk blob directory.
type Store struct {
	root   string
	logger *slog.Logger
}

// Stats summarizes the blob directory.
type Stats struct {
	Blobs      int
	TotalBytes int64
	Oldest     time.Time
	Newest     time.Time
}

// PruneResult reports what Prune removed.
type PruneResult struct {
	Removed    []string
	FreedBytes int64
	Kept       int
}

// NewStore returns a store rooted at dir.
func NewStore(dir string, logger *slog.Logger) *Store {
	s := &Store{root: strings.TrimSpace(dir)}
	s.SetLogger(logger)
	return s
}

// SetLogger swaps the store logger.
func (s *Store) SetLogger(logger *slog.Logger) {
	if s == nil {
		return
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	s.logger = logging.NewComponentLogger(logger, "assetcache")
}

// Root returns the blob directory.
func (s *Store) Root() string {
	if s == nil {
		return ""
	}
	return s.root
}

// PutAudio verifies data is a WAV container and stores it, returning the
// asset URI.
func (s *Store) PutAudio(ctx context.Context, segmentID string, data []byte) (string, error) {
	if s == nil || s.root == "" {
		return "", services.Wrap(services.ErrConfiguration, "assetcache", "put", "asset directory not configured", nil)
	}
	if !filetype.Is(data, "wav") {
		return "", services.Wrap(services.ErrValidation, "assetcache", "put", "payload is not a wav container", nil)
	}
	if _, err := wav.ParseHeader(data); err != nil {
		return "", services.Wrap(services.ErrValidation, "assetcache", "put", "wav header", err)
	}

	sum := sha256.Sum256(data)
	name := fmt.Sprintf("%s-%s.wav", sanitizeSegmentID(segmentID), hex.EncodeToString(sum[:])[:16])
	dir := filepath.Join(s.root, audioKind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("assetcache: create dir: %w", err)
	}
	target := filepath.Join(dir, name)
	uri := Scheme + audioKind + "/" + name

	if info, err := os.Stat(target); err == nil && info.Size() == int64(len(data)) {
		s.logger.DebugContext(ctx, "audio blob already stored",
			logging.SegmentID(segmentID),
			logging.String("uri", uri),
		)
		return uri, nil
	}

	tmp, err := os.CreateTemp(dir, ".put-*")
	if err != nil {
		return "", fmt.Errorf("assetcache: create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("assetcache: write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("assetcache: close blob: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("assetcache: commit blob: %w", err)
	}
	s.logger.InfoContext(ctx, "stored audio blob",
		logging.SegmentID(segmentID),
		logging.String("uri", uri),
		logging.Int("size_bytes", len(data)),
	)
	return uri, nil
}

// Owns reports whether uri uses the store scheme.
func Owns(uri string) bool {
	return strings.HasPrefix(strings.TrimSpace(uri), Scheme)
}

// Resolve maps an asset URI to its file path.
func (s *Store) Resolve(uri string) (string, error) {
	uri = strings.TrimSpace(uri)
	if !Owns(uri) {
		return "", services.Wrap(services.ErrValidation, "assetcache", "resolve", "unsupported uri "+uri, nil)
	}
	rel := strings.TrimPrefix(uri, Scheme)
	clean := filepath.Clean(filepath.FromSlash(rel))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", services.Wrap(services.ErrValidation, "assetcache", "resolve", "invalid uri path "+uri, nil)
	}
	return filepath.Join(s.root, clean), nil
}

// Valid reports whether uri resolves to an existing non-empty blob.
func (s *Store) Valid(uri string) bool {
	if s == nil || s.root == "" {
		return false
	}
	path, err := s.Resolve(uri)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > wav.HeaderSize
}

// Read returns the blob bytes for uri.
func (s *Store) Read(uri string) ([]byte, error) {
	path, err := s.Resolve(uri)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "assetcache", "read", uri, err)
		}
		return nil, fmt.Errorf("assetcache: read %s: %w", uri, err)
	}
	return data, nil
}

// Open returns a reader for the blob at uri.
func (s *Store) Open(uri string) (io.ReadCloser, error) {
	path, err := s.Resolve(uri)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "assetcache", "open", uri, err)
		}
		return nil, err
	}
	return f, nil
}

// Prune removes audio blobs whose URI is not in keep.
func (s *Store) Prune(ctx context.Context, keep map[string]struct{}) (PruneResult, error) {
	var result PruneResult
	entries, err := s.scan()
	if err != nil {
		return result, err
	}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if _, ok := keep[entry.uri]; ok {
			result.Kept++
			continue
		}
		if err := os.Remove(entry.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return result, fmt.Errorf("assetcache: remove %q: %w", entry.path, err)
		}
		s.logger.InfoContext(ctx, "pruned audio blob",
			logging.String("uri", entry.uri),
			logging.Int64("size_bytes", entry.sizeBytes),
		)
		result.Removed = append(result.Removed, entry.uri)
		result.FreedBytes += entry.sizeBytes
	}
	return result, nil
}

// Stats scans the blob directory.
func (s *Store) Stats() (Stats, error) {
	var stats Stats
	entries, err := s.scan()
	if err != nil {
		return stats, err
	}
	for i, entry := range entries {
		stats.Blobs++
		stats.TotalBytes += entry.sizeBytes
		if i == 0 {
			stats.Oldest = entry.modTime
		}
		stats.Newest = entry.modTime
	}
	return stats, nil
}

type blobEntry struct {
	uri       string
	path      string
	sizeBytes int64
	modTime   time.Time
}

func (s *Store) scan() ([]blobEntry, error) {
	entries := make([]blobEntry, 0)
	dir := filepath.Join(s.root, audioKind)
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return entries, nil
		}
		return nil, fmt.Errorf("assetcache: list %s: %w", dir, err)
	}
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".wav") {
			continue
		}
		info, err := de.Info()
		if err != nil {
			s.logger.Warn("assetcache: skip blob; excluded from stats and pruning",
				logging.String("file", de.Name()),
				logging.Error(err),
			)
			continue
		}
		entries = append(entries, blobEntry{
			uri:       Scheme + audioKind + "/" + de.Name(),
			path:      filepath.Join(dir, de.Name()),
			sizeBytes: info.Size(),
			modTime:   info.ModTime(),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].modTime.Before(entries[j].modTime)
	})
	return entries, nil
}

func sanitizeSegmentID(value string) string {
	value = strings.TrimSpace(value)
	value = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, value)
	value = strings.Trim(value, "-_")
	if value == "" {
		return "segment"
	}
	return value
}
