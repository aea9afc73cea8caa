// Package pipeline runs the per-video stage chain: crawl, markdown, translate,
// rewrite and, optionally, podcast.
//
// Each stage reads the previous stage's output and writes its own through the
// cache package, so an interrupted run resumes where it stopped. A video's
// stages run sequentially under its file lock. RunBatch fans distinct videos
// out over a bounded worker pool and records every stage outcome, tagged with
// the batch run id, in the history store.
package pipeline
