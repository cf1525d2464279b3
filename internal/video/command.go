package video

import (
	"fmt"
	"strconv"
	"strings"

	ffmpeggo "github.com/u2takey/ffmpeg-go"

	"storybuilder/internal/config"
)

// PageRequest describes one page fragment render.
type PageRequest struct {
	AudioPath  string
	ImagePath  string
	OutputPath string
	Plan       Zoompan
}

// pageCommand builds: scale up by smoothness, zoompan, scale down to the
// output height, then mux with the page narration.
func pageCommand(settings config.Video, req PageRequest) *ffmpeggo.Stream {
	narration := ffmpeggo.Input(req.AudioPath).Audio()
	frames := ffmpeggo.Input(req.ImagePath).
		Filter("scale", ffmpeggo.Args{"-2", fmt.Sprintf("%d*ih", settings.Smoothness)}).
		Filter("zoompan", ffmpeggo.Args{}, ffmpeggo.KwArgs{
			"z":   req.Plan.Zoom,
			"x":   req.Plan.X,
			"y":   req.Plan.Y,
			"d":   req.Plan.Frames,
			"fps": req.Plan.FPS,
		}).
		Filter("scale", ffmpeggo.Args{"-2", strconv.Itoa(settings.OutputHeight)})

	return ffmpeggo.Output([]*ffmpeggo.Stream{narration, frames}, req.OutputPath, ffmpeggo.KwArgs{
		"pix_fmt": settings.PixelFormat,
		"c:v":     settings.VideoCodec,
		"c:a":     settings.AudioCodec,
	}).OverWriteOutput()
}

// concatCommand joins the fragments listed in listPath without re-encoding.
func concatCommand(listPath, output string) *ffmpeggo.Stream {
	return ffmpeggo.Input(listPath, ffmpeggo.KwArgs{"f": "concat", "safe": "0"}).
		Output(output, ffmpeggo.KwArgs{"c": "copy"}).
		OverWriteOutput()
}

// PageList renders the concat demuxer list for the given fragment names.
func PageList(names []string) string {
	lines := make([]string, len(names))
	for i, name := range names {
		lines[i] = fmt.Sprintf("file '%s'", name)
	}
	return strings.Join(lines, "\n")
}
