// Package storage persists uploaded images under a single root directory.
// Files are keyed by generated UUID names, so concurrent writers never
// collide; the DB stores the returned web path string and nothing else.
package storage

import (
	"errors"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("file not found")

// webPrefix is the URL prefix stored in the DB alongside the generated name.
// It matches the /static mount so stored paths are directly fetchable.
const webPrefix = "static/uploads"

type Store struct {
	root string
	log  *slog.Logger
}

func NewStore(root string, log *slog.Logger) (*Store, error) {
	if root == "" {
		return nil, errors.New("upload root cannot be empty")
	}

	err := os.MkdirAll(root, 0o755)

	if err != nil {
		return nil, err
	}

	return &Store{root: root, log: log}, nil
}

// Put writes the bytes under a fresh UUID filename and returns the web path
// to store in the DB ("static/uploads/<name>"). prefix distinguishes item
// photos from capsule screenshots in directory listings.
func (s *Store) Put(data []byte, filename string, prefix string) (string, error) {
	name := prefix + uuid.NewString() + sanitizeExt(filename)

	err := os.WriteFile(filepath.Join(s.root, name), data, 0o644)

	if err != nil {
		return "", err
	}

	return path.Join(webPrefix, name), nil
}

// Open resolves a bare filename from the serving endpoint to a readable file.
func (s *Store) Open(name string) (*os.File, error) {
	disk, err := s.diskPath(name)

	if err != nil {
		return nil, ErrNotFound
	}

	f, err := os.Open(disk)

	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return f, nil
}

// DiskPath maps a stored web path (or bare name) to its on-disk location.
// Used to hand the file to the background post-processor.
func (s *Store) DiskPath(stored string) (string, error) {
	return s.diskPath(path.Base(stored))
}

// Delete is best-effort by contract: a missing file or an OS error must never
// fail the repository delete that triggered the cleanup. Errors are logged
// and swallowed.
func (s *Store) Delete(stored string) {
	if stored == "" {
		return
	}

	disk, err := s.diskPath(path.Base(stored))

	if err != nil {
		return
	}

	err = os.Remove(disk)

	if err != nil && !os.IsNotExist(err) && s.log != nil {
		s.log.Debug("file cleanup failed", "path", stored, "err", err)
	}
}

func (s *Store) diskPath(name string) (string, error) {
	// reject anything that could escape the root
	if name == "" || name == "." || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", ErrNotFound
	}

	return filepath.Join(s.root, name), nil
}

// sanitizeExt keeps the client's extension when it looks like one, so served
// files get a sensible Content-Type. Anything suspicious degrades to .bin.
func sanitizeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return ext
	}

	return ".bin"
}
