package cache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"talkpress/internal/logging"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir(), logging.NewNop())
}

func TestStorePathUsesStageSuffix(t *testing.T) {
	store := NewStore("/data", logging.NewNop())
	key := Key{Year: 2024, VideoID: "10179"}
	tests := map[Stage]string{
		StageCrawl:     "/data/2024/10179.json",
		StageMarkdown:  "/data/2024/10179.md",
		StageTranslate: "/data/2024/10179_zh.md",
		StageRewrite:   "/data/2024/10179_zh_rewrite.md",
		StagePodcast:   "/data/2024/10179_podcast.json",
	}
	for stage, want := range tests {
		if got := store.Path(key, stage); got != filepath.FromSlash(want) {
			t.Fatalf("Path(%s) = %q, want %q", stage, got, want)
		}
	}
}

func TestStoreSaveLoad(t *testing.T) {
	store := newTestStore(t)
	key := Key{Year: 2023, VideoID: "10001"}

	if _, ok, err := store.Load(key, StageMarkdown); err != nil || ok {
		t.Fatalf("Load before save = ok %v err %v, want miss", ok, err)
	}
	if err := store.Save(key, StageMarkdown, []byte("# Title")); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	data, ok, err := store.Load(key, StageMarkdown)
	if err != nil || !ok {
		t.Fatalf("Load after save = ok %v err %v", ok, err)
	}
	if string(data) != "# Title" {
		t.Fatalf("Load = %q", data)
	}

	leftovers, _ := filepath.Glob(filepath.Join(store.Root(), "2023", "*.tmp"))
	if len(leftovers) != 0 {
		t.Fatalf("temp files left behind: %v", leftovers)
	}
}

func TestStoreEmptyFileIsMiss(t *testing.T) {
	store := newTestStore(t)
	key := Key{Year: 2023, VideoID: "10002"}
	if err := store.Save(key, StageTranslate, []byte(" \n")); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if _, ok, err := store.Load(key, StageTranslate); err != nil || ok {
		t.Fatalf("Load = ok %v err %v, want miss", ok, err)
	}
}

func TestStoreRejectsUnsafeKeys(t *testing.T) {
	store := newTestStore(t)
	for _, key := range []Key{
		{Year: 2024, VideoID: "../etc"},
		{Year: 2024, VideoID: ""},
		{Year: 24, VideoID: "10179"},
	} {
		if err := store.Save(key, StageMarkdown, []byte("x")); err == nil {
			t.Fatalf("Save(%+v) succeeded, want error", key)
		}
	}
}

func TestStoreListAndRemove(t *testing.T) {
	store := newTestStore(t)
	a := Key{Year: 2024, VideoID: "100"}
	b := Key{Year: 2023, VideoID: "200"}
	for _, stage := range []Stage{StageRewrite, StageCrawl, StageTranslate, StageMarkdown} {
		if err := store.Save(a, stage, []byte("a")); err != nil {
			t.Fatalf("Save error: %v", err)
		}
	}
	if err := store.Save(b, StagePodcast, []byte("{}")); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if err := os.WriteFile(filepath.Join(store.Root(), "2024", "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	entries, err := store.List(0)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("List returned %d entries, want 5: %+v", len(entries), entries)
	}
	if entries[0].Key != b || entries[0].Stage != StagePodcast {
		t.Fatalf("first entry = %+v", entries[0])
	}
	wantOrder := []Stage{StageCrawl, StageMarkdown, StageTranslate, StageRewrite}
	for i, stage := range wantOrder {
		if entries[i+1].Stage != stage || entries[i+1].Key != a {
			t.Fatalf("entry %d = %+v, want %s for %s", i+1, entries[i+1], stage, a)
		}
	}

	only2024, err := store.List(2024)
	if err != nil || len(only2024) != 4 {
		t.Fatalf("List(2024) = %d entries, err %v", len(only2024), err)
	}

	removed, err := store.Remove(a)
	if err != nil || removed != 4 {
		t.Fatalf("Remove = %d, %v; want 4", removed, err)
	}
	cleared, err := store.ClearYear(2023)
	if err != nil || cleared != 1 {
		t.Fatalf("ClearYear = %d, %v; want 1", cleared, err)
	}
	if entries, _ := store.List(0); len(entries) != 0 {
		t.Fatalf("entries remain after clear: %+v", entries)
	}
}

func TestStoreListMissingRoot(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "absent"), logging.NewNop())
	entries, err := store.List(0)
	if err != nil || len(entries) != 0 {
		t.Fatalf("List = %v, %v", entries, err)
	}
}

func TestLockIsExclusive(t *testing.T) {
	store := newTestStore(t)
	key := Key{Year: 2024, VideoID: "10179"}

	first, err := store.Lock(key)
	if err != nil {
		t.Fatalf("Lock error: %v", err)
	}
	if _, err := store.Lock(key); !errors.Is(err, ErrLocked) {
		t.Fatalf("second Lock error = %v, want ErrLocked", err)
	}
	if err := first.Unlock(); err != nil {
		t.Fatalf("Unlock error: %v", err)
	}
	again, err := store.Lock(key)
	if err != nil {
		t.Fatalf("Lock after unlock error: %v", err)
	}
	_ = again.Unlock()

	var nilLock *VideoLock
	if err := nilLock.Unlock(); err != nil {
		t.Fatalf("nil Unlock error: %v", err)
	}
}

func TestParseKeyAndStage(t *testing.T) {
	key, err := ParseKey("2024/10179")
	if err != nil || key != (Key{Year: 2024, VideoID: "10179"}) {
		t.Fatalf("ParseKey = %+v, %v", key, err)
	}
	for _, bad := range []string{"10179", "abcd/1", "2024/../x"} {
		if _, err := ParseKey(bad); err == nil {
			t.Fatalf("ParseKey(%q) succeeded", bad)
		}
	}
	stage, err := ParseStage(" Rewrite ")
	if err != nil || stage != StageRewrite {
		t.Fatalf("ParseStage = %q, %v", stage, err)
	}
	if _, err := ParseStage("upload"); err == nil {
		t.Fatal("ParseStage accepted unknown stage")
	}
}

func TestRemoveRespectsHeldLock(t *testing.T) {
	store := newTestStore(t)
	key := Key{Year: 2024, VideoID: "10179"}
	if err := store.Save(key, StageCrawl, []byte("{}")); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	held, err := store.Lock(key)
	if err != nil {
		t.Fatalf("Lock error: %v", err)
	}
	if n, err := store.Remove(key); !errors.Is(err, ErrLocked) || n != 0 {
		t.Fatalf("Remove while locked = %d, %v; want ErrLocked", n, err)
	}
	if n, err := store.ClearYear(2024); !errors.Is(err, ErrLocked) || n != 0 {
		t.Fatalf("ClearYear while locked = %d, %v; want ErrLocked", n, err)
	}
	if _, ok, _ := store.Load(key, StageCrawl); !ok {
		t.Fatal("cached output removed while the video was locked")
	}
	if _, err := store.Lock(key); !errors.Is(err, ErrLocked) {
		t.Fatalf("second Lock after Remove attempt = %v, want ErrLocked", err)
	}

	if err := held.Unlock(); err != nil {
		t.Fatalf("Unlock error: %v", err)
	}
	if n, err := store.Remove(key); err != nil || n != 1 {
		t.Fatalf("Remove after unlock = %d, %v; want 1", n, err)
	}

	again, err := store.Lock(key)
	if err != nil {
		t.Fatalf("Lock after Remove error: %v", err)
	}
	defer again.Unlock()
	if _, err := store.Lock(key); !errors.Is(err, ErrLocked) {
		t.Fatalf("Lock while held after Remove = %v, want ErrLocked", err)
	}
}
