// Package page drives one quiz round the way the guessing page does: it picks
// the round, resolves the audio descriptor, loads the lyrics, keeps the
// active lyric line in view during playback and records the answer.
package page

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mgpai22/lyricquiz/internal/catalog"
	"github.com/mgpai22/lyricquiz/internal/fetch"
	"github.com/mgpai22/lyricquiz/internal/logging"
	"github.com/mgpai22/lyricquiz/internal/lyrics"
	"github.com/mgpai22/lyricquiz/internal/quiz"
)

var (
	ErrNotReady         = errors.New("round is not ready")
	ErrNoRound          = errors.New("no round started")
	ErrAlreadyAnswered  = errors.New("round already answered")
	ErrUnknownCandidate = errors.New("not a candidate of this round")
)

// upstream lookups the page performs for every round
type Upstream interface {
	AudioDescriptor(ctx context.Context, trackID string) (*fetch.DescriptorResponse, error)
	Resource(ctx context.Context, ref string) (*fetch.Resource, error)
}

type Status string

const (
	StatusIdle     Status = "idle"
	StatusNotReady Status = "not_ready"
	StatusReady    Status = "ready"
)

// host supplied behavior
type Options struct {
	EnglishOnly bool
	// called by ReturnToSettings
	OnSettings func()
}

// read-only copy of the page state for rendering
type State struct {
	RoundID     uint64          `json:"roundId"`
	Status      Status          `json:"status"`
	Candidates  []catalog.Track `json:"candidates,omitempty"`
	CoverRef    string          `json:"coverUrl,omitempty"`
	SourceURL   string          `json:"sourceUrl,omitempty"`
	Lyrics      lyrics.Track    `json:"lyrics"`
	NoLyrics    bool            `json:"noLyrics"`
	CurrentLine int             `json:"currentLine"`
	Answered    bool            `json:"answered"`
	SelectedID  string          `json:"selectedId,omitempty"`
	// revealed once an answer was selected
	Correct *catalog.Track `json:"correct,omitempty"`
}

type Controller struct {
	repo     catalog.Repository
	policy   *quiz.Policy
	upstream Upstream
	follower *lyrics.Follower
	logger   *logging.Logger
	opts     Options

	mu         sync.Mutex
	round      *quiz.Round
	coverRef   string
	descriptor *fetch.AudioDescriptor
	lyrics     lyrics.Track
	selected   string
}

func New(
	repo catalog.Repository,
	policy *quiz.Policy,
	upstream Upstream,
	view lyrics.Scroller,
	logger *logging.Logger,
	opts Options,
) *Controller {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Controller{
		repo:     repo,
		policy:   policy,
		upstream: upstream,
		follower: lyrics.NewFollower(view),
		logger:   logger,
		opts:     opts,
		lyrics:   lyrics.Track{},
	}
}

// Start begins a new round and loads its audio descriptor and lyrics.
// Only a failure to pick a round is returned; fetch failures leave the
// round not ready or without lyrics.
func (c *Controller) Start(ctx context.Context) error {
	round, err := c.newRound(ctx)
	if err != nil {
		return err
	}
	c.load(ctx, round)
	return nil
}

// Restart discards the current round and starts another one.
func (c *Controller) Restart(ctx context.Context) error {
	return c.Start(ctx)
}

// ReturnToSettings hands control back to the host's settings screen.
func (c *Controller) ReturnToSettings() {
	if c.opts.OnSettings != nil {
		c.opts.OnSettings()
	}
}

func (c *Controller) newRound(ctx context.Context) (quiz.Round, error) {
	tracks, err := c.repo.Tracks(ctx)
	if err != nil {
		return quiz.Round{}, fmt.Errorf("failed to load catalog: %w", err)
	}

	round, err := c.policy.SelectRound(tracks, c.opts.EnglishOnly)
	if err != nil {
		return quiz.Round{}, err
	}

	coverRef, err := catalog.CoverRef(ctx, c.repo, round.Correct)
	if err != nil {
		c.logger.Warnw("No album cover for track",
			"track", round.Correct.ID,
			"album", round.Correct.AlbumID,
			"error", err,
		)
	}

	c.mu.Lock()
	c.round = &round
	c.coverRef = coverRef
	c.descriptor = nil
	c.lyrics = lyrics.Track{}
	c.selected = ""
	c.mu.Unlock()

	c.follower.Reset(lyrics.Track{})

	c.logger.Debugw("Round selected",
		"round", round.ID,
		"candidates", len(round.Candidates),
	)
	return round, nil
}

func (c *Controller) load(ctx context.Context, round quiz.Round) {
	resp, err := c.upstream.AudioDescriptor(ctx, round.Correct.ID)
	if err != nil {
		// no retry; the round stays not ready
		c.logger.Warnw("Failed to fetch audio descriptor",
			"round", round.ID,
			"track", round.Correct.ID,
			"error", err,
		)
		return
	}

	descriptor := resp.Data
	if !c.apply(round.ID, func() { c.descriptor = &descriptor }) {
		return
	}

	if descriptor.LyricURL == "" {
		return
	}

	lines, err := c.fetchLyrics(ctx, descriptor.LyricURL)
	if err != nil {
		c.logger.Warnw("Failed to fetch lyrics",
			"round", round.ID,
			"ref", descriptor.LyricURL,
			"error", err,
		)
		lines = lyrics.Track{}
	}

	c.apply(round.ID, func() {
		c.lyrics = lines
		c.follower.Reset(lines)
	})
}

func (c *Controller) fetchLyrics(ctx context.Context, ref string) (lyrics.Track, error) {
	res, err := c.upstream.Resource(ctx, ref)
	if err != nil {
		return nil, err
	}
	return lyrics.Parse(string(res.Data)), nil
}

// apply runs fn under the lock unless a newer round started meanwhile.
func (c *Controller) apply(roundID uint64, fn func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.round == nil || c.round.ID != roundID {
		c.logger.Debugw("Discarding stale response", "round", roundID)
		return false
	}
	fn()
	return true
}

// OnTimeUpdate is called on every playback tick with the position in
// seconds and returns the active lyric line.
func (c *Controller) OnTimeUpdate(t float64) int {
	c.mu.Lock()
	ready := c.descriptor != nil && len(c.lyrics) > 0
	c.mu.Unlock()

	if !ready {
		return 0
	}
	return c.follower.Update(t)
}

// Tick reads the playback position from clock.
func (c *Controller) Tick(clock lyrics.Clock) int {
	return c.OnTimeUpdate(clock.CurrentTime())
}

// SelectAnswer records the player's choice and reports whether it was correct.
func (c *Controller) SelectAnswer(trackID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.round == nil:
		return false, ErrNoRound
	case c.descriptor == nil:
		return false, ErrNotReady
	case c.selected != "":
		return false, ErrAlreadyAnswered
	}

	if _, ok := c.round.Candidate(trackID); !ok {
		return false, fmt.Errorf("%s: %w", trackID, ErrUnknownCandidate)
	}

	c.selected = trackID
	return trackID == c.round.Correct.ID, nil
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.round == nil {
		return State{Status: StatusIdle, Lyrics: lyrics.Track{}, NoLyrics: true}
	}

	state := State{
		RoundID:     c.round.ID,
		Status:      StatusNotReady,
		CoverRef:    c.coverRef,
		Lyrics:      c.lyrics,
		NoLyrics:    len(c.lyrics) == 0,
		CurrentLine: c.follower.Current(),
		Answered:    c.selected != "",
		SelectedID:  c.selected,
	}

	if c.descriptor != nil {
		state.Status = StatusReady
		state.SourceURL = c.descriptor.SourceURL
		state.Candidates = append([]catalog.Track(nil), c.round.Candidates...)
	}

	if state.Answered {
		correct := c.round.Correct
		state.Correct = &correct
	}

	return state
}
