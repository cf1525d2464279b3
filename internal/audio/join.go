package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hyacinthus/mp3join"

	"storybuilder/internal/fileutil"
)

// JoinMP3 concatenates the MP3 files in parts, in order, into dst.
func JoinMP3(dst string, parts []string) error {
	if len(parts) == 0 {
		return errors.New("join mp3: no input parts")
	}
	joiner := mp3join.New()
	for _, part := range parts {
		f, err := os.Open(part)
		if err != nil {
			return fmt.Errorf("join mp3: %w", err)
		}
		err = joiner.Append(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("join mp3: %s: %w", part, err)
		}
	}
	data, err := io.ReadAll(joiner.Reader())
	if err != nil {
		return fmt.Errorf("join mp3: read joined stream: %w", err)
	}
	if len(data) == 0 {
		return fmt.Errorf("join mp3: no audio frames in %d parts", len(parts))
	}
	if err := fileutil.WriteFileAtomic(dst, data); err != nil {
		return fmt.Errorf("join mp3: %w", err)
	}
	return nil
}
