// Package store provides the local caches: per-concern file directories for
// raw fetched artifacts and a DuckDB table for resolved coordinate records.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Cache concern directories. Each concern gets its own directory under the
// cache root and each file is keyed deterministically, so a presence check
// before fetching is correct.
const (
	ConcernSequences = "transcripts" // fetched reference sequence records
	ConcernBlat      = "blat"        // alignment search results and alignments
	ConcernNameCheck = "namecheck"   // name-normalization responses
	ConcernGeneDB    = "genedb"      // gene database cross-reference tables
)

// Files is a per-concern file cache rooted at a single directory. Writes use
// the read-check-then-write-if-absent pattern with no cross-process locking;
// concurrent processes sharing a cache directory may duplicate downloads.
type Files struct {
	root string
}

// NewFiles creates the cache root and one directory per concern.
func NewFiles(root string) (*Files, error) {
	for _, concern := range []string{ConcernSequences, ConcernBlat, ConcernNameCheck, ConcernGeneDB} {
		if err := os.MkdirAll(filepath.Join(root, concern), 0755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}
	return &Files{root: root}, nil
}

// Root returns the cache root directory.
func (f *Files) Root() string {
	return f.root
}

// Path returns the file path for a key within a concern directory.
func (f *Files) Path(concern, key string) (string, error) {
	if strings.ContainsAny(key, "/\\") {
		return "", fmt.Errorf("cache key %q contains a path separator", key)
	}
	return filepath.Join(f.root, concern, key), nil
}

// Exists reports whether a cached file is present for the key.
func (f *Files) Exists(concern, key string) bool {
	path, err := f.Path(concern, key)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Read returns the cached contents for a key.
func (f *Files) Read(concern, key string) ([]byte, error) {
	path, err := f.Path(concern, key)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// Write stores contents under a key unless the file already exists.
func (f *Files) Write(concern, key string, data []byte) error {
	path, err := f.Path(concern, key)
	if err != nil {
		return err
	}
	if f.Exists(concern, key) {
		return nil
	}
	return os.WriteFile(path, data, 0644)
}

// Remove deletes a cached file. Removing a missing file is not an error:
// the point of Remove is that the next lookup refetches.
func (f *Files) Remove(concern, key string) error {
	path, err := f.Path(concern, key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
