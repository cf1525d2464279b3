// Package video renders narrated pages into the story movie.
//
// Each page illustration is animated with ffmpeg's zoompan filter, moving
// linearly from the page's initial viewport to its final viewport over the
// length of the page narration. Page fragments are concatenated into
// <video_out>/<Title>.mp4 and their probed durations are written to the page
// timing file the subtitle stage reads.
package video
