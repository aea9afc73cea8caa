package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"talkpress/internal/config"
	"talkpress/internal/logging"
	"talkpress/internal/services"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Level = "info"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("stage completed", logging.String("video", "2024/10179"))
	logger.Debug("hidden at info")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line in log file, got %d: %q", len(lines), content)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log file line is not JSON: %v", err)
	}
	if entry["msg"] != "stage completed" || entry["level"] != "info" || entry["video"] != "2024/10179" {
		t.Fatalf("unexpected entry %v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts key in %v", entry)
	}
}

func TestConsoleLoggerOmitsSourceForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without source")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), ".go:") {
		t.Fatalf("expected no source information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesSourceForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message with source")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), ".go:") {
		t.Fatalf("expected source information in debug logs, got %q", content)
	}
}

func TestConsoleLineLayout(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "layout.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithStage(services.WithVideo(context.Background(), "2024/10179"), "translate")
	component := logging.NewComponentLogger(logger, "pipeline")
	logging.WithContext(ctx, component).Info("stage completed", logging.String("note", "two words"), logging.Int("bytes", 42))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := strings.TrimSpace(string(content))
	for _, fragment := range []string{
		" INFO pipeline: stage completed [2024/10179 translate]",
		`note="two words"`,
		"bytes=42",
	} {
		if !strings.Contains(line, fragment) {
			t.Fatalf("expected %q in %q", fragment, line)
		}
	}
	if strings.Contains(line, "component=") || strings.Contains(line, "video=") {
		t.Fatalf("lifted fields should not repeat in tail: %q", line)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewInvalidLevelDefaultsToInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "level.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "invalid", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("dropped")
	logger.Info("kept")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), "dropped") || !strings.Contains(string(content), "kept") {
		t.Fatalf("unexpected log content %q", content)
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithVideo(ctx, "2023/10001")
	ctx = services.WithStage(ctx, "rewrite")
	ctx = services.WithRunID(ctx, "run-xyz")

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logging.WithContext(ctx, logger).Info("contextual log")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	for key, want := range map[string]string{
		logging.FieldVideo: "2023/10001",
		logging.FieldStage: "rewrite",
		logging.FieldRunID: "run-xyz",
	} {
		if entry[key] != want {
			t.Fatalf("field %s = %v, want %q", key, entry[key], want)
		}
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logging.WarnWithContext(logger, "cache write failed", "cache_write_failed", logging.String(logging.FieldImpact, "stage will rerun"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	if entry[logging.FieldEventType] != "cache_write_failed" {
		t.Fatalf("unexpected event type %v", entry[logging.FieldEventType])
	}
	if entry[logging.FieldImpact] != "stage will rerun" {
		t.Fatalf("caller impact should be kept, got %v", entry[logging.FieldImpact])
	}
	if entry[logging.FieldErrorHint] == nil {
		t.Fatal("expected default error hint")
	}
}

func TestFileLogMirrorsConsole(t *testing.T) {
	dir := t.TempDir()
	consolePath := filepath.Join(dir, "console.log")
	filePath := filepath.Join(dir, "logs", logging.LogFileName)
	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{consolePath},
		FilePath:    filePath,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.With(logging.String("run_id", "run-1")).WithGroup("llm").Info("completion received", logging.Int("attempt", 2))
	logger.Debug("dropped by both")

	console, err := os.ReadFile(consolePath)
	if err != nil {
		t.Fatalf("read console log: %v", err)
	}
	if !strings.Contains(string(console), "completion received") || strings.Contains(string(console), "dropped by both") {
		t.Fatalf("unexpected console output %q", console)
	}
	if strings.HasPrefix(strings.TrimSpace(string(console)), "{") {
		t.Fatalf("console output should not be JSON: %q", console)
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("read file log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line in file log, got %d: %q", len(lines), content)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("file log line is not JSON: %v", err)
	}
	if entry["run_id"] != "run-1" {
		t.Fatalf("expected attrs carried to file log, got %v", entry)
	}
	group, ok := entry["llm"].(map[string]any)
	if !ok || group["attempt"] != float64(2) {
		t.Fatalf("expected grouped attempt in file log, got %v", entry)
	}
}

func decodeAttrs(t *testing.T, attrs []logging.Attr) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	slog.New(slog.NewJSONHandler(&buf, nil)).Info("entry", logging.Args(attrs...)...)
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	return entry
}

func TestCacheHitAttrs(t *testing.T) {
	entry := decodeAttrs(t, logging.CacheHit("/out/2024/10179/translate.md"))
	if entry[logging.FieldEventType] != "cache_hit" || entry[logging.FieldDecisionType] != "cache" {
		t.Fatalf("unexpected cache hit attrs %v", entry)
	}
	if entry["path"] != "/out/2024/10179/translate.md" || entry["decision_result"] != "hit" {
		t.Fatalf("unexpected cache hit attrs %v", entry)
	}
}

func TestStageAttrs(t *testing.T) {
	complete := decodeAttrs(t, logging.StageComplete("/out/a.md", 512, 0))
	if complete[logging.FieldEventType] != "stage_complete" || complete["bytes"] != float64(512) {
		t.Fatalf("unexpected completion attrs %v", complete)
	}

	failed := decodeAttrs(t, logging.StageOutcome("failed", 0, errors.New("boom"), ""))
	if failed["resolved_status"] != "failed" || failed["error"] != "boom" {
		t.Fatalf("unexpected failure attrs %v", failed)
	}
	if _, ok := failed[logging.FieldErrorHint]; ok {
		t.Fatalf("blank hint should be omitted, got %v", failed)
	}

	skipped := decodeAttrs(t, logging.StageOutcome("skipped", 0, nil, "fix the record"))
	if skipped[logging.FieldErrorHint] != "fix the record" || skipped["error"] != "<nil>" {
		t.Fatalf("unexpected skip attrs %v", skipped)
	}
}

func TestBatchAttrs(t *testing.T) {
	start := decodeAttrs(t, logging.BatchStart(3, 2, []string{"fetch", "assemble"}))
	if start["videos"] != float64(3) || start["concurrency"] != float64(2) {
		t.Fatalf("unexpected batch start attrs %v", start)
	}

	done := decodeAttrs(t, logging.BatchComplete(map[string]int{"completed": 2, "failed": 1}, 0))
	if done[logging.FieldEventType] != "batch_complete" {
		t.Fatalf("unexpected batch event %v", done)
	}
	for status, want := range map[string]float64{"completed": 2, "cached": 0, "skipped": 0, "failed": 1} {
		if done[status] != want {
			t.Fatalf("%s = %v, want %v", status, done[status], want)
		}
	}
}

func TestErrorWithContextNilLogger(t *testing.T) {
	logging.ErrorWithContext(nil, "ignored", "stage_failure")
}
