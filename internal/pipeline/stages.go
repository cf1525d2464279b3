package pipeline

import (
	"fmt"
	"slices"
	"strings"
)

// Stage names in execution order.
const (
	StageAudio     = "audio"
	StageVideo     = "video"
	StageSubtitles = "subtitles"
)

// AllStages lists every stage in execution order.
var AllStages = []string{StageAudio, StageVideo, StageSubtitles}

var stageAliases = map[string]string{
	"audio":     StageAudio,
	"video":     StageVideo,
	"subtitles": StageSubtitles,
	"subs":      StageSubtitles,
}

// ParseStages normalizes stage names and returns them in execution order.
// An empty selection means every stage.
func ParseStages(names []string) ([]string, error) {
	if len(names) == 0 {
		return slices.Clone(AllStages), nil
	}
	selected := make(map[string]struct{}, len(names))
	for _, name := range names {
		canonical, ok := stageAliases[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown stage %q (expected audio, video, or subs)", name)
		}
		selected[canonical] = struct{}{}
	}
	out := make([]string, 0, len(selected))
	for _, name := range AllStages {
		if _, ok := selected[name]; ok {
			out = append(out, name)
		}
	}
	return out, nil
}
