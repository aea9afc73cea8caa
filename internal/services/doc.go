// Package services defines shared utilities consumed by the pipeline stages
// and their external collaborators (crawler, language model).
//
// Key responsibilities:
//   - Context helpers that stamp the video, stage, and run identifier for
//     logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent history statuses (failed vs skipped).
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
