package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mgpai22/lyricquiz/internal/lyrics"
)

// terminalView prints the active lyric line each time the follower scrolls.
type terminalView struct {
	out    io.Writer
	active *color.Color
	next   *color.Color

	mu    sync.Mutex
	lines lyrics.Track
}

func newTerminalView(out io.Writer) *terminalView {
	return &terminalView{
		out:    out,
		active: color.New(color.FgCyan, color.Bold),
		next:   color.New(color.FgHiBlack),
	}
}

func (v *terminalView) SetLines(lines lyrics.Track) {
	v.mu.Lock()
	v.lines = lines
	v.mu.Unlock()
}

func (v *terminalView) ScrollLineIntoView(index int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	line, ok := v.lines.Line(index)
	if !ok {
		return
	}
	v.active.Fprintf(v.out, "> %s  %s\n", formatStamp(line.Time), line.Text)
	if upcoming, ok := v.lines.Line(index + 1); ok {
		v.next.Fprintf(v.out, "  %s  %s\n", formatStamp(upcoming.Time), upcoming.Text)
	}
}

// formatStamp renders seconds as MM:SS.cc
func formatStamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	cs := int64(seconds*100 + 0.5)
	return fmt.Sprintf("%02d:%02d.%02d", cs/6000, (cs/100)%60, cs%100)
}

// wallClock reports playback position from real elapsed time.
type wallClock struct {
	start  time.Time
	offset float64
	speed  float64
	now    func() time.Time
}

func newWallClock(offset, speed float64) *wallClock {
	return &wallClock{start: time.Now(), offset: offset, speed: speed, now: time.Now}
}

func (c *wallClock) CurrentTime() float64 {
	return c.offset + c.now().Sub(c.start).Seconds()*c.speed
}

// stepClock is advanced by hand, for simulated playback.
type stepClock struct {
	t float64
}

func (c *stepClock) CurrentTime() float64 { return c.t }

func (c *stepClock) Advance(d float64) { c.t += d }
