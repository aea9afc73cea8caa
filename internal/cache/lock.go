package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process is already working on a video.
var ErrLocked = errors.New("video is locked by another run")

// VideoLock is an advisory file lock held while a video's stages run.
type VideoLock struct {
	lock *flock.Flock
}

// Lock acquires the video's lock without waiting.
func (s *Store) Lock(key Key) (*VideoLock, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	path := s.lockPath(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s (lock file %s)", ErrLocked, key, path)
	}
	return &VideoLock{lock: lock}, nil
}

// Unlock releases the lock. It is safe to call on a nil lock.
func (l *VideoLock) Unlock() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}

func (s *Store) lockPath(key Key) string {
	return filepath.Join(s.root, strconv.Itoa(key.Year), "."+key.VideoID+".lock")
}
