// Package main hosts the storybuilder CLI entrypoint and command graph.
//
// The Cobra-based command tree loads configuration once, then hands off to
// the pipeline runner for the audio, video, and subtitle stages. Supporting
// commands report dependency readiness, show run history from the run store,
// scaffold configuration, and print subtitle chunks for a verse range.
//
// Keep this package lean: add new functionality to the internal packages
// first, then surface it through dedicated commands or flags here.
package main
