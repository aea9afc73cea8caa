// Package transform runs the LLM-backed stages: translate, rewrite and podcast.
//
// Text stages return Markdown; a reply wrapped in one outer markdown fence is
// unwrapped. The podcast stage must produce a PodcastScript with at least one
// complete segment or it fails with services.ErrValidation.
package transform
