// Package cache stores per-stage pipeline outputs on disk.
//
// Each (year, video, stage) maps to one file: <root>/<year>/<id>.json for the
// crawled record, <id>.md for Markdown, <id>_zh.md and <id>_zh_rewrite.md for
// the translated and rewritten text, and <id>_podcast.json for the optional
// podcast script. Writes go through a temp file and rename so readers never
// see partial output. A per-video flock keeps two processes from working on
// the same video at once.
package cache
