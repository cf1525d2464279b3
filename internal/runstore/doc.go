// Package runstore records pipeline runs in SQLite.
//
// Every invocation of the pipeline opens a run row; each stage executed for
// each story adds a stage row with its outcome and error classification. The
// CLI reads the history back for the runs command, and a new run marks rows
// left in the running state by an interrupted process as failed.
//
// Schema changes are added as numbered files under migrations/.
package runstore
