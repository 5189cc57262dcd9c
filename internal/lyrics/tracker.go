package lyrics

import "sync"

// CurrentLineIndex returns the index of the line being sung at t seconds:
// the line before the first one that starts after t. Before the first line it
// is clamped to 0, past the last line it stays on the last one.
func CurrentLineIndex(lines Track, t float64) int {
	for j, line := range lines {
		if line.Time > t {
			if j == 0 {
				return 0
			}
			return j - 1
		}
	}
	if len(lines) == 0 {
		return 0
	}
	return len(lines) - 1
}

// Follower keeps the active line of a Track in sync with playback and asks
// the view to scroll whenever the active line changes.
type Follower struct {
	mu       sync.Mutex
	lines    Track
	current  int
	scrolled bool
	scroller Scroller
}

func NewFollower(scroller Scroller) *Follower {
	return &Follower{scroller: scroller}
}

// Reset replaces the lyrics wholesale and forgets the active line.
func (f *Follower) Reset(lines Track) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lines = lines
	f.current = 0
	f.scrolled = false
}

// Update recomputes the active line for t and returns it. The scroller is
// called only when the index changed, or on the first update after Reset.
func (f *Follower) Update(t float64) int {
	f.mu.Lock()
	if len(f.lines) == 0 {
		f.mu.Unlock()
		return 0
	}

	index := CurrentLineIndex(f.lines, t)
	changed := !f.scrolled || index != f.current
	f.current = index
	f.scrolled = true
	f.mu.Unlock()

	if changed && f.scroller != nil {
		f.scroller.ScrollLineIntoView(index)
	}
	return index
}

// Tick reads the playback position from clock and updates.
func (f *Follower) Tick(clock Clock) int {
	return f.Update(clock.CurrentTime())
}

// Current returns the active line index.
func (f *Follower) Current() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// Lines returns the lyrics being followed.
func (f *Follower) Lines() Track {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lines
}
