// Package audio assembles the per-page narration clips.
//
// Each page's verse range resolves to spans inside a chapter recording. Every
// span is cut with ffmpeg into a scratch directory and the cuts are joined
// frame by frame into <audio_temp>/<Title>_<NN>.mp3, which the video stage
// uses as the page soundtrack and length.
package audio
