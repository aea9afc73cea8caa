package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"talkpress/internal/logging"
	"talkpress/internal/record"
	"talkpress/internal/services"
)

// Runner executes a command and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecFetcher runs an external command that prints one record JSON object.
// The command template is split on whitespace; {year} and {video_id} are
// substituted in every argument.
type ExecFetcher struct {
	template []string
	timeout  time.Duration
	run      Runner
	logger   *slog.Logger
}

// NewExecFetcher parses the command template.
func NewExecFetcher(command string, timeout time.Duration, logger *slog.Logger) (*ExecFetcher, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, errors.New("crawler command is empty")
	}
	if !strings.Contains(command, "{video_id}") {
		return nil, errors.New("crawler command must reference {video_id}")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &ExecFetcher{
		template: fields,
		timeout:  timeout,
		run:      defaultRunner,
		logger:   logging.NewComponentLogger(logger, "crawler"),
	}, nil
}

// WithRunner injects a custom runner (primarily for tests).
func (f *ExecFetcher) WithRunner(run Runner) {
	if run != nil {
		f.run = run
	}
}

// Args returns the command line for one video.
func (f *ExecFetcher) Args(year int, videoID string) []string {
	replacer := strings.NewReplacer("{year}", strconv.Itoa(year), "{video_id}", videoID)
	args := make([]string, len(f.template))
	for i, field := range f.template {
		args[i] = replacer.Replace(field)
	}
	return args
}

// Fetch runs the command and decodes its output.
func (f *ExecFetcher) Fetch(ctx context.Context, year int, videoID string) (*record.Record, error) {
	args := f.Args(year, videoID)
	runCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	logging.WithContext(ctx, f.logger).Debug("running crawler command",
		logging.String("command", strings.Join(args, " ")))
	out, err := f.run(runCtx, args[0], args[1:]...)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, services.Wrap(services.ErrTimeout, stageName, "run command", args[0], err)
		}
		return nil, services.Wrap(services.ErrExternalTool, stageName, "run command", args[0], err)
	}
	if len(bytes.TrimSpace(out)) == 0 {
		return nil, services.Wrap(services.ErrExternalTool, stageName, "run command", args[0]+" printed nothing", nil)
	}
	rec, err := record.Decode(out)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func defaultRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}
