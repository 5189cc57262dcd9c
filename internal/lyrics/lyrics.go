package lyrics

import (
	"math"
	"sort"
	"strings"
	"time"
)

// one timestamped lyric line; Time is the offset in seconds
type TimedLine struct {
	Time float64 `json:"time"`
	Text string  `json:"text"`
}

// Offset returns the line offset as a duration.
func (l TimedLine) Offset() time.Duration {
	return time.Duration(math.Round(l.Time * float64(time.Second)))
}

// ordered lyric lines of one song, in the order they appeared in the source
type Track []TimedLine

// Sorted returns a copy ordered by time. Lines sharing a timestamp keep
// their source order.
func (t Track) Sorted() Track {
	out := make(Track, len(t))
	copy(out, t)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time < out[j].Time
	})
	return out
}

// Plain returns the lyric text without timestamps, one line per entry.
func (t Track) Plain() string {
	texts := make([]string, len(t))
	for i, line := range t {
		texts[i] = line.Text
	}
	return strings.Join(texts, "\n")
}

// Line returns the line at index, or false when out of range.
func (t Track) Line(index int) (TimedLine, bool) {
	if index < 0 || index >= len(t) {
		return TimedLine{}, false
	}
	return t[index], true
}

// playback capability: reports the current media position in seconds
type Clock interface {
	CurrentTime() float64
}

// view capability: brings a line into the middle of its viewport
type Scroller interface {
	ScrollLineIntoView(index int)
}

// adapts a plain function to Scroller
type ScrollerFunc func(index int)

func (f ScrollerFunc) ScrollLineIntoView(index int) {
	f(index)
}
