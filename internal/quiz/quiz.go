package quiz

import (
	"errors"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mgpai22/lyricquiz/internal/catalog"
)

// number of answers offered per round, correct one included
const CandidateCount = 4

var ErrEmptyCatalog = errors.New("no tracks left after filtering")

// one question: the track being played and the shuffled answers
type Round struct {
	ID         uint64          `json:"id"`
	Correct    catalog.Track   `json:"correct"`
	Candidates []catalog.Track `json:"candidates"`
}

// Position returns the index of the correct answer among the candidates.
func (r Round) Position() int {
	for i, c := range r.Candidates {
		if c.ID == r.Correct.ID {
			return i
		}
	}
	return -1
}

// Candidate returns the candidate with the given track id.
func (r Round) Candidate(id string) (catalog.Track, bool) {
	for _, c := range r.Candidates {
		if c.ID == id {
			return c, true
		}
	}
	return catalog.Track{}, false
}

// picks the correct answer and distractors for each round
type Policy struct {
	mu     sync.Mutex
	rng    *rand.Rand
	nextID atomic.Uint64
}

// NewPolicy uses src for every random choice; nil seeds from the clock.
func NewPolicy(src rand.Source) *Policy {
	if src == nil {
		now := uint64(time.Now().UnixNano())
		src = rand.NewPCG(now, now>>1|1)
	}
	return &Policy{rng: rand.New(src)}
}

// Filter drops tracks with CJK ideographs in their name when excludeNonLatin
// is set. The input is never modified.
func Filter(tracks []catalog.Track, excludeNonLatin bool) []catalog.Track {
	if !excludeNonLatin {
		return tracks
	}
	out := make([]catalog.Track, 0, len(tracks))
	for _, t := range tracks {
		if !t.IsExcludableByScript() {
			out = append(out, t)
		}
	}
	return out
}

// SelectRound picks one correct track uniformly, up to three distinct
// distractors, and shuffles them together. With fewer than four eligible
// tracks the round offers all of them.
func (p *Policy) SelectRound(tracks []catalog.Track, excludeNonLatin bool) (Round, error) {
	eligible := Filter(tracks, excludeNonLatin)
	if len(eligible) == 0 {
		return Round{}, ErrEmptyCatalog
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	correct := eligible[p.rng.IntN(len(eligible))]

	others := make([]catalog.Track, 0, len(eligible)-1)
	for _, t := range eligible {
		if t.ID != correct.ID {
			others = append(others, t)
		}
	}
	p.shuffle(others)
	if len(others) > CandidateCount-1 {
		others = others[:CandidateCount-1]
	}

	candidates := make([]catalog.Track, 0, len(others)+1)
	candidates = append(candidates, correct)
	candidates = append(candidates, others...)
	p.shuffle(candidates)

	return Round{
		ID:         p.nextID.Add(1),
		Correct:    correct,
		Candidates: candidates,
	}, nil
}

// Fisher-Yates
func (p *Policy) shuffle(tracks []catalog.Track) {
	p.rng.Shuffle(len(tracks), func(i, j int) {
		tracks[i], tracks[j] = tracks[j], tracks[i]
	})
}
