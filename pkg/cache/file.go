package cache

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"time"
)

// FileCache stores entries as files under a directory, sharded by key hash.
// Geometry buffers run to megabytes, so entries are written raw with a
// fixed binary header instead of being wrapped in JSON.
type FileCache struct {
	dir string
}

// NewFileCache creates a file-based cache in the given directory.
// The directory will be created if it doesn't exist.
func NewFileCache(dir string) (Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

// entryHeaderSize is the length of the per-file header: the expiry as
// unix nanoseconds (0 means no expiry).
const entryHeaderSize = 8

// Get retrieves a value from the cache.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if len(data) < entryHeaderSize {
		// Truncated entry - treat as miss
		_ = os.Remove(path)
		return nil, false, nil
	}

	expires := int64(binary.LittleEndian.Uint64(data[:entryHeaderSize]))
	if expires != 0 && time.Now().UnixNano() > expires {
		_ = os.Remove(path)
		return nil, false, nil
	}

	return data[entryHeaderSize:], true, nil
}

// Set stores a value in the cache.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	var expires int64
	if ttl > 0 {
		expires = time.Now().Add(ttl).UnixNano()
	}

	entry := make([]byte, entryHeaderSize+len(data))
	binary.LittleEndian.PutUint64(entry[:entryHeaderSize], uint64(expires))
	copy(entry[entryHeaderSize:], data)

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	return os.WriteFile(path, entry, 0644)
}

// Delete removes a value from the cache.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	path := c.path(key)
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Close does nothing for file cache.
func (c *FileCache) Close() error {
	return nil
}

// path converts a cache key to a file path.
// The first two hash characters shard entries across subdirectories.
func (c *FileCache) path(key string) string {
	hash := Hash([]byte(key))
	return filepath.Join(c.dir, hash[:2], hash[2:]+".bin")
}

// Ensure FileCache implements Cache.
var _ Cache = (*FileCache)(nil)
