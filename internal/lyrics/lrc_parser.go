package lyrics

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// [minutes:seconds.fraction]text; the fraction is mandatory
var timestampRegex = regexp.MustCompile(`\[(\d+):(\d+\.\d+)\](.*)`)

// Parse converts line-timestamped lyric text into a Track. Lines that do not
// carry a timestamp are dropped; an input without any yields an empty Track.
func Parse(raw string) Track {
	lines := Track{}
	for _, physical := range strings.Split(raw, "\n") {
		if line, ok := parseLine(physical); ok {
			lines = append(lines, line)
		}
	}
	return lines
}

// ParseReader applies the same rules as Parse to a stream.
func ParseReader(r io.Reader) (Track, error) {
	lines := Track{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if line, ok := parseLine(scanner.Text()); ok {
			lines = append(lines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading lyrics: %w", err)
	}

	return lines, nil
}

func parseLine(physical string) (TimedLine, bool) {
	matches := timestampRegex.FindStringSubmatch(physical)
	if len(matches) != 4 {
		return TimedLine{}, false
	}

	minutes, err := strconv.Atoi(matches[1])
	if err != nil {
		return TimedLine{}, false
	}
	seconds, err := strconv.ParseFloat(matches[2], 64)
	if err != nil {
		return TimedLine{}, false
	}

	return TimedLine{
		Time: float64(minutes)*60 + seconds,
		Text: strings.TrimSpace(matches[3]),
	}, true
}

// IsSynced reports whether the first non-blank line carries a timestamp.
func IsSynced(raw string) bool {
	for _, physical := range strings.Split(raw, "\n") {
		if strings.TrimSpace(physical) == "" {
			continue
		}
		_, ok := parseLine(physical)
		return ok
	}
	return false
}
