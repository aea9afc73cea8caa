package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"talkpress/internal/logging"
)

// Entry describes one cached stage output.
type Entry struct {
	Key     Key
	Stage   Stage
	Path    string
	Size    int64
	ModTime time.Time
}

// Store reads and writes stage outputs under root/<year>/<id><suffix>.
type Store struct {
	root   string
	logger *slog.Logger
}

// NewStore returns a store rooted at root.
func NewStore(root string, logger *slog.Logger) *Store {
	return &Store{
		root:   root,
		logger: logging.NewComponentLogger(logger, "cache"),
	}
}

// Root returns the cache root directory.
func (s *Store) Root() string {
	return s.root
}

// Path returns the file that holds the stage output for key.
func (s *Store) Path(key Key, stage Stage) string {
	return filepath.Join(s.root, strconv.Itoa(key.Year), key.VideoID+stage.Suffix())
}

// Load returns the cached output. A missing or empty file is a miss.
func (s *Store) Load(key Key, stage Stage) ([]byte, bool, error) {
	if err := key.Validate(); err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(s.Path(key, stage))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read cache file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, false, nil
	}
	return data, true, nil
}

// Save writes the stage output atomically.
func (s *Store) Save(key Key, stage Stage, data []byte) error {
	if err := key.Validate(); err != nil {
		return err
	}
	path := s.Path(key, stage)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}

	s.logger.Debug("cached stage output",
		logging.String(logging.FieldVideo, key.String()),
		logging.String(logging.FieldStage, string(stage)),
		logging.Int("bytes", len(data)))
	return nil
}

// Remove deletes every stage output for key and returns how many files were
// removed. It holds the video lock while deleting and returns ErrLocked when a
// run is working on the video. The lock file itself is never removed.
func (s *Store) Remove(key Key) (int, error) {
	lock, err := s.Lock(key)
	if err != nil {
		return 0, err
	}
	defer lock.Unlock()

	removed := 0
	for _, stage := range Stages() {
		err := os.Remove(s.Path(key, stage))
		switch {
		case err == nil:
			removed++
		case errors.Is(err, fs.ErrNotExist):
		default:
			return removed, fmt.Errorf("remove %s %s: %w", key, stage, err)
		}
	}
	return removed, nil
}

// ClearYear deletes every cached output for year. Videos locked by a running
// batch are left alone and reported through an error wrapping ErrLocked.
func (s *Store) ClearYear(year int) (int, error) {
	entries, err := s.List(year)
	if err != nil {
		return 0, err
	}
	removed := 0
	var busy []error
	for _, key := range uniqueKeys(entries) {
		n, err := s.Remove(key)
		removed += n
		switch {
		case err == nil:
		case errors.Is(err, ErrLocked):
			busy = append(busy, err)
		default:
			return removed, err
		}
	}
	s.logger.Info("cleared cache year",
		logging.String(logging.FieldEventType, "cache_cleared"),
		logging.Int("year", year),
		logging.Int("files", removed),
		logging.Int("locked_videos", len(busy)))
	return removed, errors.Join(busy...)
}

func uniqueKeys(entries []Entry) []Key {
	seen := make(map[Key]bool, len(entries))
	keys := make([]Key, 0, len(entries))
	for _, entry := range entries {
		if !seen[entry.Key] {
			seen[entry.Key] = true
			keys = append(keys, entry.Key)
		}
	}
	return keys
}

// List returns cached outputs, optionally restricted to one year (0 means all),
// ordered by year, video and stage.
func (s *Store) List(year int) ([]Entry, error) {
	yearDirs, err := s.yearDirs(year)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, dir := range yearDirs {
		y, err := strconv.Atoi(filepath.Base(dir))
		if err != nil {
			continue
		}
		files, err := os.ReadDir(dir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("read cache directory: %w", err)
		}
		for _, file := range files {
			if file.IsDir() || strings.HasPrefix(file.Name(), ".") {
				continue
			}
			id, stage, ok := stageForFile(file.Name())
			if !ok {
				continue
			}
			info, err := file.Info()
			if err != nil {
				continue
			}
			entries = append(entries, Entry{
				Key:     Key{Year: y, VideoID: id},
				Stage:   stage,
				Path:    filepath.Join(dir, file.Name()),
				Size:    info.Size(),
				ModTime: info.ModTime(),
			})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Key.Year != b.Key.Year {
			return a.Key.Year < b.Key.Year
		}
		if a.Key.VideoID != b.Key.VideoID {
			return a.Key.VideoID < b.Key.VideoID
		}
		return a.Stage.Index() < b.Stage.Index()
	})
	return entries, nil
}

func (s *Store) yearDirs(year int) ([]string, error) {
	if year > 0 {
		return []string{filepath.Join(s.root, strconv.Itoa(year))}, nil
	}
	items, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cache root: %w", err)
	}
	var dirs []string
	for _, item := range items {
		if item.IsDir() {
			dirs = append(dirs, filepath.Join(s.root, item.Name()))
		}
	}
	return dirs, nil
}
