// Package textutil provides text normalization helpers shared by the crawler,
// cache, and CLI.
//
// The primary use cases are:
//   - Unicode NFC normalization and whitespace collapsing of extracted page text
//   - Filesystem-safe tokens for cache path segments
//   - Title-cased labels for table output
package textutil
