package lyrics

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// represents supported export formats
type Format string

const (
	FormatLRC Format = "lrc"
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
)

// how long the last line stays on screen when exporting cue-based formats
const LastLineDuration = 5 * time.Second

// interface for writing lyrics in a given format
type Writer interface {
	Write(w io.Writer, lines Track) error
}

type LRCWriter struct{}

// SubRip format
type SRTWriter struct{}

// WebVTT format
type VTTWriter struct{}

func NewWriter(format Format) (Writer, error) {
	switch format {
	case FormatLRC:
		return &LRCWriter{}, nil
	case FormatSRT:
		return &SRTWriter{}, nil
	case FormatVTT:
		return &VTTWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// ParseFormat maps a user supplied name to a Format.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatLRC, FormatSRT, FormatVTT:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format %q: use lrc, srt, or vtt", name)
	}
}

func (w *LRCWriter) Write(out io.Writer, lines Track) error {
	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString(formatLRCTime(line.Time))
		sb.WriteString(line.Text)
		sb.WriteString("\n")
	}
	_, err := io.WriteString(out, sb.String())
	return err
}

func (w *SRTWriter) Write(out io.Writer, lines Track) error {
	var sb strings.Builder
	for i, cue := range cues(lines) {
		// index (1-based)
		sb.WriteString(fmt.Sprintf("%d\n", i+1))
		sb.WriteString(fmt.Sprintf("%s --> %s\n",
			formatSRTTime(cue.start),
			formatSRTTime(cue.end)))
		sb.WriteString(cue.text)
		sb.WriteString("\n\n")
	}
	_, err := io.WriteString(out, sb.String())
	return err
}

func (w *VTTWriter) Write(out io.Writer, lines Track) error {
	var sb strings.Builder
	sb.WriteString("WEBVTT\n\n")
	for i, cue := range cues(lines) {
		sb.WriteString(fmt.Sprintf("%d\n", i+1))
		sb.WriteString(fmt.Sprintf("%s --> %s\n",
			formatVTTTime(cue.start),
			formatVTTTime(cue.end)))
		sb.WriteString(cue.text)
		sb.WriteString("\n\n")
	}
	_, err := io.WriteString(out, sb.String())
	return err
}

// WriteFile writes lines to path in the given format, creating parent directories.
func WriteFile(path string, format Format, lines Track) error {
	writer, err := NewWriter(format)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := writer.Write(file, lines); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return file.Close()
}

type cue struct {
	start time.Duration
	end   time.Duration
	text  string
}

// cue-based formats need an end time: a line ends where the next one starts.
// Blank lines only close the previous cue.
func cues(lines Track) []cue {
	sorted := lines.Sorted()
	var out []cue
	for i, line := range sorted {
		if line.Text == "" {
			continue
		}
		end := line.Offset() + LastLineDuration
		if i+1 < len(sorted) && sorted[i+1].Offset() > line.Offset() {
			end = sorted[i+1].Offset()
		}
		out = append(out, cue{start: line.Offset(), end: end, text: line.Text})
	}
	return out
}

func formatLRCTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	centis := int(math.Round(seconds * 100))
	minutes := centis / 6000
	centis %= 6000
	return fmt.Sprintf("[%02d:%02d.%02d]", minutes, centis/100, centis%100)
}

func formatSRTTime(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	millis := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}

func formatVTTTime(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	millis := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, seconds, millis)
}

// file extension for a format
func ExtensionForFormat(format Format) string {
	switch format {
	case FormatSRT:
		return ".srt"
	case FormatVTT:
		return ".vtt"
	default:
		return ".lrc"
	}
}
