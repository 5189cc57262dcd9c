package quiz

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/mgpai22/lyricquiz/internal/catalog"
)

func makeTracks(names ...string) []catalog.Track {
	tracks := make([]catalog.Track, len(names))
	for i, name := range names {
		tracks[i] = catalog.Track{
			ID:          fmt.Sprintf("%03d", i),
			DisplayName: name,
			AlbumID:     "A",
		}
	}
	return tracks
}

func numberedTracks(n int) []catalog.Track {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("Song %d", i)
	}
	return makeTracks(names...)
}

func seeded(seed uint64) *Policy {
	return NewPolicy(rand.NewPCG(seed, seed+1))
}

func checkRound(t *testing.T, round Round, wantLen int) {
	t.Helper()

	if len(round.Candidates) != wantLen {
		t.Fatalf("expected %d candidates, got %d", wantLen, len(round.Candidates))
	}

	seen := map[string]bool{}
	correctCount := 0
	for _, c := range round.Candidates {
		if seen[c.ID] {
			t.Fatalf("duplicate candidate %s in %v", c.ID, round.Candidates)
		}
		seen[c.ID] = true
		if c.ID == round.Correct.ID {
			correctCount++
		}
	}
	if correctCount != 1 {
		t.Fatalf("correct answer appears %d times", correctCount)
	}
}

func TestSelectRoundInvariants(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantLen int
	}{
		{"large catalog", 50, 4},
		{"exactly four", 4, 4},
		{"five tracks", 5, 4},
		{"three tracks", 3, 3},
		{"single track", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := seeded(7)
			tracks := numberedTracks(tt.size)
			for i := 0; i < 200; i++ {
				round, err := policy.SelectRound(tracks, false)
				if err != nil {
					t.Fatalf("SelectRound returned error: %v", err)
				}
				checkRound(t, round, tt.wantLen)
			}
		})
	}
}

func TestSelectRoundEmpty(t *testing.T) {
	policy := seeded(1)

	if _, err := policy.SelectRound(nil, false); !errors.Is(err, ErrEmptyCatalog) {
		t.Errorf("expected ErrEmptyCatalog, got %v", err)
	}

	onlyCJK := makeTracks("夜明け", "星空")
	if _, err := policy.SelectRound(onlyCJK, true); !errors.Is(err, ErrEmptyCatalog) {
		t.Errorf("expected ErrEmptyCatalog after filtering, got %v", err)
	}
}

func TestSelectRoundEnglishOnly(t *testing.T) {
	tracks := makeTracks("Alpha", "夜明け", "Beta", "星の歌", "Gamma", "Delta", "Mixed 歌")
	policy := seeded(3)

	for i := 0; i < 200; i++ {
		round, err := policy.SelectRound(tracks, true)
		if err != nil {
			t.Fatalf("SelectRound returned error: %v", err)
		}
		checkRound(t, round, 4)
		for _, c := range round.Candidates {
			if catalog.ContainsCJK(c.DisplayName) {
				t.Fatalf("CJK track %q selected with filter on", c.DisplayName)
			}
		}
	}
}

func TestFilter(t *testing.T) {
	tracks := makeTracks("Alpha", "夜明け", "Beta")

	if got := Filter(tracks, false); len(got) != 3 {
		t.Errorf("filter off: expected 3 tracks, got %d", len(got))
	}

	got := Filter(tracks, true)
	if len(got) != 2 {
		t.Fatalf("filter on: expected 2 tracks, got %d", len(got))
	}
	for _, track := range got {
		if catalog.ContainsCJK(track.DisplayName) {
			t.Errorf("unexpected track %q", track.DisplayName)
		}
	}
	if tracks[1].DisplayName != "夜明け" {
		t.Error("Filter modified its input")
	}
}

func TestSelectRoundDoesNotMutateCatalog(t *testing.T) {
	tracks := numberedTracks(10)
	before := make([]catalog.Track, len(tracks))
	copy(before, tracks)

	policy := seeded(11)
	for i := 0; i < 20; i++ {
		if _, err := policy.SelectRound(tracks, false); err != nil {
			t.Fatalf("SelectRound returned error: %v", err)
		}
	}

	for i := range tracks {
		if tracks[i].ID != before[i].ID {
			t.Fatalf("catalog order changed at %d", i)
		}
	}
}

func TestCorrectPositionIsUniform(t *testing.T) {
	const trials = 40000
	policy := seeded(42)
	tracks := numberedTracks(20)

	var counts [CandidateCount]int
	for i := 0; i < trials; i++ {
		round, err := policy.SelectRound(tracks, false)
		if err != nil {
			t.Fatalf("SelectRound returned error: %v", err)
		}
		counts[round.Position()]++
	}

	expected := float64(trials) / CandidateCount
	for slot, n := range counts {
		if dev := (float64(n) - expected) / expected; dev > 0.05 || dev < -0.05 {
			t.Errorf("slot %d: %d hits, expected about %.0f", slot, n, expected)
		}
	}
}

func TestCorrectChoiceIsUniform(t *testing.T) {
	const trials = 60000
	policy := seeded(5)
	tracks := numberedTracks(6)

	counts := map[string]int{}
	for i := 0; i < trials; i++ {
		round, err := policy.SelectRound(tracks, false)
		if err != nil {
			t.Fatalf("SelectRound returned error: %v", err)
		}
		counts[round.Correct.ID]++
	}

	expected := float64(trials) / float64(len(tracks))
	for id, n := range counts {
		if dev := (float64(n) - expected) / expected; dev > 0.05 || dev < -0.05 {
			t.Errorf("track %s chosen %d times, expected about %.0f", id, n, expected)
		}
	}
}

func TestSameSeedSameRounds(t *testing.T) {
	tracks := numberedTracks(12)
	a, b := seeded(99), seeded(99)

	for i := 0; i < 10; i++ {
		ra, _ := a.SelectRound(tracks, false)
		rb, _ := b.SelectRound(tracks, false)
		for j := range ra.Candidates {
			if ra.Candidates[j].ID != rb.Candidates[j].ID {
				t.Fatalf("round %d differs at candidate %d", i, j)
			}
		}
	}
}

func TestRoundIDsIncrease(t *testing.T) {
	policy := seeded(2)
	tracks := numberedTracks(5)

	first, _ := policy.SelectRound(tracks, false)
	second, _ := policy.SelectRound(tracks, false)
	if second.ID <= first.ID {
		t.Errorf("expected increasing ids, got %d then %d", first.ID, second.ID)
	}
}

func TestRoundCandidateLookup(t *testing.T) {
	round := Round{
		Correct:    catalog.Track{ID: "b"},
		Candidates: []catalog.Track{{ID: "a"}, {ID: "b"}},
	}
	if round.Position() != 1 {
		t.Errorf("Position() = %d, want 1", round.Position())
	}
	if _, ok := round.Candidate("z"); ok {
		t.Error("Candidate(z) should not be found")
	}
	if c, ok := round.Candidate("a"); !ok || c.ID != "a" {
		t.Errorf("Candidate(a) = %v, %v", c, ok)
	}
}
