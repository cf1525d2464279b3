// Package pipeline drives the audio, video, and subtitle stages over the
// story collection.
//
// A run holds an exclusive lock on the scratch area, records itself in the
// run store, loads the scripture books the selected stories reference, and
// executes the selected stages story by story. A failing stage ends that
// story; the run moves on to the next one and reports every failure in its
// Summary.
package pipeline
