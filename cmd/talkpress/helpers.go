package main

import (
	"fmt"
	"strings"

	"talkpress/internal/cache"
)

// parseVideos accepts bare ids (combined with year) or "<year>/<id>" pairs.
func parseVideos(year int, args []string) ([]cache.Key, error) {
	keys := make([]cache.Key, 0, len(args))
	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		if arg == "" {
			continue
		}
		if strings.Contains(arg, "/") {
			key, err := cache.ParseKey(arg)
			if err != nil {
				return nil, err
			}
			keys = append(keys, key)
			continue
		}
		if year == 0 {
			return nil, fmt.Errorf("video %q needs --year or the <year>/<id> form", arg)
		}
		key := cache.Key{Year: year, VideoID: arg}
		if err := key.Validate(); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("at least one video id is required")
	}
	return keys, nil
}

func truncate(value string, limit int) string {
	value = strings.Join(strings.Fields(value), " ")
	runes := []rune(value)
	if limit <= 0 || len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
