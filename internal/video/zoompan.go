package video

import (
	"errors"
	"fmt"
	"math"

	"storybuilder/internal/story"
)

// ErrNoFrames reports narration too short to yield a single frame.
var ErrNoFrames = errors.New("page narration shorter than one frame")

// Zoompan holds the zoompan filter parameters for one page.
type Zoompan struct {
	Frames int
	FPS    int
	Zoom   string
	X      string
	Y      string
}

// FrameCount converts a narration length into whole frames at fps.
func FrameCount(audioMS, fps int) int {
	if fps <= 0 {
		return 0
	}
	return int(float64(audioMS) / (1000.0 / float64(fps)))
}

// PlanZoompan builds the per-frame expressions that move the viewport from
// initial to final. The zoom level is the reciprocal of the interpolated
// viewport size; x and y are fractions of the input width and height.
func PlanZoompan(initial, final story.Rect, audioMS, fps int) (Zoompan, error) {
	frames := FrameCount(audioMS, fps)
	if frames <= 0 {
		return Zoompan{}, fmt.Errorf("%w: %d ms at %d fps", ErrNoFrames, audioMS, fps)
	}
	n := float64(frames)
	sizeIncr := (final.Size - initial.Size) / n
	xIncr := (final.X - initial.X) / n
	yIncr := (final.Y - initial.Y) / n

	return Zoompan{
		Frames: frames,
		FPS:    fps,
		Zoom:   fmt.Sprintf("1/(%.10f%s%.10f*on)", initial.Size-sizeIncr, sign(sizeIncr), math.Abs(sizeIncr)),
		X:      fmt.Sprintf("%.10f*iw%s%.10f*iw*on", initial.X-xIncr, sign(xIncr), math.Abs(xIncr)),
		Y:      fmt.Sprintf("%.10f*ih%s%.10f*ih*on", initial.Y-yIncr, sign(yIncr), math.Abs(yIncr)),
	}, nil
}

func sign(x float64) string {
	if x < 0 {
		return "-"
	}
	return "+"
}
