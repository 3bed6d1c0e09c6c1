package main

import (
	"crypto/sha1"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"fortio.org/log"
	"github.com/google/go-github/v62/github"
)

// cachedContent is what we keep of one GetContents call. Found is false for
// paths GitHub reported missing, so repeated runs don't ask again.
type cachedContent struct {
	Found bool
	File  *github.RepositoryContent   `json:",omitempty"`
	Dir   []*github.RepositoryContent `json:",omitempty"`
}

// diskCache stores JSON encoded GitHub responses, one file per request.
type diskCache struct {
	dir     string
	enabled bool
}

// userCacheDir is the default location, under the user's cache directory.
func userCacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user cache directory: %w", err)
	}
	return filepath.Join(base, "amalgamate_cache"), nil
}

// newDiskCache creates dir if the cache is enabled.
func newDiskCache(dir string, enabled bool) (*diskCache, error) {
	c := &diskCache{dir: dir, enabled: enabled}
	if !enabled {
		return c, nil
	}
	log.LogVf("Using cache directory: %s", dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}
	return c, nil
}

func (c *diskCache) clear() error {
	if c.dir == "" {
		return errors.New("cache directory not initialized")
	}
	log.Infof("Clearing cache directory: %s", c.dir)
	return os.RemoveAll(c.dir)
}

// key hashes the request parts into a file name.
func (c *diskCache) key(parts ...string) string {
	h := sha1.New()
	for _, p := range parts {
		io.WriteString(h, p)
		io.WriteString(h, "|")
	}
	return filepath.Join(c.dir, fmt.Sprintf("%x.json", h.Sum(nil)))
}

// read fills target from the cache. A miss, a disabled cache and a corrupt
// entry all return false; only unexpected read errors are returned.
func (c *diskCache) read(key string, target any) (bool, error) {
	if !c.enabled {
		return false, nil
	}
	data, err := os.ReadFile(key)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("error reading cache file %s: %w", key, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		log.Warnf("Error unmarshaling cache file %s, ignoring cache: %v", key, err)
		return false, nil
	}
	return true, nil
}

func (c *diskCache) write(key string, data any) error {
	if !c.enabled {
		return nil
	}
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data for cache key %s: %w", key, err)
	}
	if err := os.WriteFile(key, jsonData, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file %s: %w", key, err)
	}
	log.LogVf("Cache write: %s", key)
	return nil
}
