// Package objectstore provides a filesystem-backed object store for
// visitor-submitted files. Keys are namespaced per owning user as
// {ownerID}/{timestamp}-{random}{ext}.
package objectstore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type FileStore struct {
	root    string
	baseURL string
}

// New creates the store rooted at dir, creating it if needed. baseURL
// is prepended to keys to form public URLs.
func New(dir, baseURL string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0770); err != nil {
		return nil, err
	}
	return &FileStore{
		root:    dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Save streams r into a new object owned by ownerID and returns the
// generated key and the number of bytes written.
func (fs *FileStore) Save(ctx context.Context, ownerID, filename string, r io.Reader) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return "", 0, err
	}

	ext := filepath.Ext(filename)
	key := fmt.Sprintf("%s/%d-%s%s", ownerID, time.Now().UnixNano(), hex.EncodeToString(suffix), ext)

	path := filepath.Join(fs.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0770); err != nil {
		return "", 0, err
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0660)
	if err != nil {
		return "", 0, err
	}

	size, err := io.Copy(file, r)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", 0, err
	}

	return key, size, nil
}

// Remove deletes the object with the given key. Removing a missing
// object is not an error.
func (fs *FileStore) Remove(_ context.Context, key string) error {
	err := os.Remove(filepath.Join(fs.root, filepath.FromSlash(key)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// PublicURL returns the externally reachable URL for a key.
func (fs *FileStore) PublicURL(key string) string {
	return fs.baseURL + "/" + key
}

// Open returns a reader over a stored object.
func (fs *FileStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(fs.root, filepath.FromSlash(key)))
}
