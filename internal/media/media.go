// Package media cuts short audio previews of quiz tracks with ffmpeg.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gosimple/slug"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// settings for preview clips
type ClipOptions struct {
	Start    time.Duration
	Duration time.Duration
	Bitrate  string // e.g. "128k"
	FadeOut  time.Duration
}

func DefaultClipOptions() ClipOptions {
	return ClipOptions{
		Start:    30 * time.Second,
		Duration: 15 * time.Second,
		Bitrate:  "128k",
		FadeOut:  time.Second,
	}
}

// JSON output from ffprobe
type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// IsRemote reports whether input is an http(s) URL rather than a local file.
func IsRemote(input string) bool {
	u, err := url.Parse(input)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// duration of a local file or remote stream
func GetDuration(ctx context.Context, bins BinaryPaths, input string) (time.Duration, error) {
	if bins.FFprobe == "" {
		return 0, errors.New("ffprobe not found")
	}
	if !IsRemote(input) && !fileExists(input) {
		return 0, fmt.Errorf("file not found: %s", input)
	}

	cmd := exec.CommandContext(ctx, bins.FFprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		input,
	)

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	return parseProbe(out.Bytes())
}

func parseProbe(data []byte) (time.Duration, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(data, &probe); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	seconds, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}

	return time.Duration(seconds * float64(time.Second)), nil
}

// Window fits the requested clip into a track of length total. A start past
// the end moves the clip back so it still has the requested length; a track
// shorter than the clip is used whole. An unknown total (0) leaves the
// request as is.
func Window(total, start, duration time.Duration) (time.Duration, time.Duration) {
	if start < 0 {
		start = 0
	}
	if total <= 0 || duration <= 0 {
		return start, duration
	}
	if duration >= total {
		return 0, total
	}
	if start+duration > total {
		start = total - duration
	}
	return start, duration
}

// Clip cuts [opts.Start, opts.Start+opts.Duration) of input into an mp3 at
// output. input may be a local file or an http(s) URL.
func Clip(ctx context.Context, bins BinaryPaths, input, output string, opts ClipOptions) error {
	if opts.Duration <= 0 {
		return fmt.Errorf("clip duration must be positive, got %v", opts.Duration)
	}
	if !IsRemote(input) && !fileExists(input) {
		return fmt.Errorf("input file not found: %s", input)
	}

	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var stderr bytes.Buffer
	cmd := ffmpeg.Input(input, ffmpeg.KwArgs{"ss": seconds(opts.Start)}).
		Output(output, clipArgs(opts)).
		OverWriteOutput().
		SetFfmpegPath(bins.FFmpeg).
		WithErrorOutput(&stderr).
		Compile()

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("clip failed: %w: %s", err, lastLine(stderr.String()))
		}
		return nil
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done
		_ = os.Remove(output)
		return ctx.Err()
	}
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

func clipArgs(opts ClipOptions) ffmpeg.KwArgs {
	kwargs := ffmpeg.KwArgs{
		"t":      seconds(opts.Duration),
		"vn":     "",
		"acodec": "libmp3lame",
	}
	if opts.Bitrate != "" {
		kwargs["b:a"] = opts.Bitrate
	}
	if opts.FadeOut > 0 && opts.FadeOut < opts.Duration {
		kwargs["af"] = fmt.Sprintf(
			"afade=t=out:st=%s:d=%s",
			seconds(opts.Duration-opts.FadeOut),
			seconds(opts.FadeOut),
		)
	}
	return kwargs
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

// ClipName builds a file name like "ghost-of-a-chance-30s.mp3".
func ClipName(title string, start time.Duration) string {
	name := slug.Make(title)
	if name == "" {
		name = "clip"
	}
	return fmt.Sprintf("%s-%s.mp3", name, start.Truncate(time.Second))
}
