// Package main hosts the talkpress CLI entrypoint and command graph.
//
// Commands resolve configuration once through commandContext, then hand the
// work to the internal packages: run drives the stage pipeline over a batch
// of videos, crawl and build expose the first two stages on their own, and
// list, status and cache inspect the session catalogue, run history and
// cached outputs.
package main
