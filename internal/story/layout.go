package story

import (
	"fmt"
	"path/filepath"

	"storybuilder/internal/config"
)

// Layout maps stories and pages onto the configured scratch and output paths.
type Layout struct {
	ImageDir     string
	AudioTemp    string
	VideoTemp    string
	TimingTemp   string
	SubsTemp     string
	VideoOut     string
	SubsOut      string
	VideoSubsOut string
}

// NewLayout builds a Layout from configured paths.
func NewLayout(paths config.Paths) Layout {
	return Layout{
		ImageDir:     paths.ImageSrc,
		AudioTemp:    paths.AudioTemp,
		VideoTemp:    paths.VideoTemp,
		TimingTemp:   paths.PageTimingTemp,
		SubsTemp:     paths.SubsTemp,
		VideoOut:     paths.VideoOut,
		SubsOut:      paths.SubsOut,
		VideoSubsOut: paths.VideoSubsOut,
	}
}

// PageAudio is the narration clip for one page.
func (l Layout) PageAudio(s *Story, p Page) string {
	return filepath.Join(l.AudioTemp, fmt.Sprintf("%s_%02d.mp3", s.FileStem(), p.Number))
}

// PageImage is the illustration for one page.
func (l Layout) PageImage(p Page) string {
	return filepath.Join(l.ImageDir, p.Image)
}

// PageVideoName is the rendered page fragment's file name inside VideoTemp.
func (l Layout) PageVideoName(p Page) string {
	return fmt.Sprintf("%02d.mp4", p.Number)
}

// PageVideo is the rendered page fragment.
func (l Layout) PageVideo(p Page) string {
	return filepath.Join(l.VideoTemp, l.PageVideoName(p))
}

// PageList is the concat demuxer input listing every page fragment.
func (l Layout) PageList() string {
	return filepath.Join(l.VideoTemp, "pages.txt")
}

// Movie is the concatenated, unsubtitled story video.
func (l Layout) Movie(s *Story) string {
	return filepath.Join(l.VideoOut, s.FileStem()+".mp4")
}

// PageTimings is the per-page rendered duration file.
func (l Layout) PageTimings(s *Story) string {
	return filepath.Join(l.TimingTemp, s.FileStem()+".txt")
}

// Subtitles is the story's SRT file.
func (l Layout) Subtitles(s *Story) string {
	return filepath.Join(l.SubsOut, s.FileStem()+".srt")
}

// Subbed is the copy of the movie with burned-in subtitles.
func (l Layout) Subbed(s *Story) string {
	return filepath.Join(l.VideoSubsOut, s.FileStem()+"_subbed.mp4")
}
