package main

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"talkpress/internal/history"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

func statusColor(status history.Status) string {
	switch status {
	case history.StatusCompleted:
		return ansiGreen
	case history.StatusCached:
		return ansiBlue
	case history.StatusSkipped:
		return ansiYellow
	case history.StatusFailed:
		return ansiRed
	default:
		return ""
	}
}

func renderStatus(status history.Status, colorize bool) string {
	label := string(status)
	if label == "" {
		label = "-"
	}
	if colorize {
		if color := statusColor(status); color != "" {
			return color + label + ansiReset
		}
	}
	return label
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
