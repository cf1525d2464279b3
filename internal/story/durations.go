package story

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"storybuilder/internal/fileutil"
)

// WritePageDurations stores one integer millisecond duration per line.
func WritePageDurations(path string, durations []int) error {
	lines := make([]string, len(durations))
	for i, d := range durations {
		lines[i] = strconv.Itoa(d)
	}
	if err := fileutil.WriteFileAtomic(path, []byte(strings.Join(lines, "\n"))); err != nil {
		return fmt.Errorf("write page durations: %w", err)
	}
	return nil
}

// ReadPageDurations loads a file written by WritePageDurations.
func ReadPageDurations(path string) ([]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read page durations: %w", err)
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		return nil, fmt.Errorf("page durations %s: file is empty", path)
	}
	lines := strings.Split(content, "\n")
	durations := make([]int, 0, len(lines))
	for idx, line := range lines {
		value, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil {
			return nil, fmt.Errorf("page durations %s line %d: %w", path, idx+1, err)
		}
		if value < 0 {
			return nil, fmt.Errorf("page durations %s line %d: negative duration %d", path, idx+1, value)
		}
		durations = append(durations, value)
	}
	return durations, nil
}
