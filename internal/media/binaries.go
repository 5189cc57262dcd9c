package media

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

var ErrFFmpegNotFound = errors.New("ffmpeg not found; install it or set LYRICQUIZ_FFMPEG_PATH")

type BinaryPaths struct {
	FFmpeg  string
	FFprobe string
}

// Locate resolves ffmpeg and ffprobe. An explicit ffmpeg path wins over
// LYRICQUIZ_FFMPEG_PATH, which wins over $PATH; ffprobe is looked up next to
// the chosen ffmpeg first.
func Locate(ffmpegPath string) (BinaryPaths, error) {
	if ffmpegPath == "" {
		ffmpegPath = os.Getenv("LYRICQUIZ_FFMPEG_PATH")
	}
	ffprobePath := os.Getenv("LYRICQUIZ_FFPROBE_PATH")

	if ffmpegPath == "" {
		found, err := exec.LookPath("ffmpeg")
		if err != nil {
			return BinaryPaths{}, ErrFFmpegNotFound
		}
		ffmpegPath = found
	} else if !fileExists(ffmpegPath) {
		return BinaryPaths{}, fmt.Errorf("%w: %s does not exist", ErrFFmpegNotFound, ffmpegPath)
	}

	if ffprobePath == "" {
		sibling := filepath.Join(filepath.Dir(ffmpegPath), "ffprobe"+executableSuffix())
		if fileExists(sibling) {
			ffprobePath = sibling
		} else if found, err := exec.LookPath("ffprobe"); err == nil {
			ffprobePath = found
		}
	}

	return BinaryPaths{FFmpeg: ffmpegPath, FFprobe: ffprobePath}, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func executableSuffix() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}
	return ""
}
