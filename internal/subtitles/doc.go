// Package subtitles turns page text and rendered page durations into SRT
// captions.
//
// ChunkText breaks page text into caption-sized chunks at terminal
// punctuation. BuildTimeline times those chunks either by interpolating each
// page's duration over its chunks (offset by the inter-page padding estimated
// with ComputePadding) or by handing them to a forced Aligner such as the
// aeneas runner and mapping the returned fragments back by position.
// WriteSRT serializes the cues and Burner draws them into a copy of the movie.
//
// Stage wires these pieces into the per-story pipeline.
package subtitles
