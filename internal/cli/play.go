package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mgpai22/lyricquiz/internal/fetch"
	"github.com/mgpai22/lyricquiz/internal/page"
	"github.com/spf13/cobra"
)

// playback position advances this much per simulated tick
const playStep = 0.25

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play one quiz round in the terminal",
	Long: `Play one quiz round in the terminal. The round's lyrics scroll along
with simulated playback, then you pick the title from the candidates.

Examples:
  lyricquiz play
  lyricquiz play --english-only --listen 45 --speed 4`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().Bool("english-only", false, "Exclude tracks whose titles contain CJK characters")
	playCmd.Flags().Uint64("seed", 0, "Seed for a reproducible round (0 picks a random seed)")
	playCmd.Flags().Float64("listen", 30, "Seconds of playback to follow before answering")
	playCmd.Flags().Float64("speed", 1, "Playback speed multiplier (0 skips waiting)")
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	englishOnly := cfg.EnglishOnly
	if cmd.Flags().Changed("english-only") {
		englishOnly, _ = cmd.Flags().GetBool("english-only")
	}
	seed, _ := cmd.Flags().GetUint64("seed")
	listen, _ := cmd.Flags().GetFloat64("listen")
	speed, _ := cmd.Flags().GetFloat64("speed")
	if speed < 0 {
		return fmt.Errorf("speed must not be negative, got %v", speed)
	}

	repo, closeRepo, err := openRepository(ctx)
	if err != nil {
		return err
	}
	defer closeRepo()

	out := cmd.OutOrStdout()
	view := newTerminalView(out)
	ctrl := page.New(
		repo,
		policyForSeed(seed),
		fetch.New(cfg.UpstreamURL),
		view,
		logger,
		page.Options{EnglishOnly: englishOnly},
	)

	return playRound(ctx, ctrl, view, bufio.NewReader(cmd.InOrStdin()), out, listen, speed)
}

func playRound(
	ctx context.Context,
	ctrl *page.Controller,
	view *terminalView,
	in *bufio.Reader,
	out io.Writer,
	listen, speed float64,
) error {
	if err := ctrl.Start(ctx); err != nil {
		return err
	}

	state := ctrl.Snapshot()
	if state.Status != page.StatusReady {
		return errors.New("audio for this round is unavailable, try again")
	}

	fmt.Fprintf(out, "Now playing: %s\n", state.SourceURL)
	if state.CoverRef != "" {
		fmt.Fprintf(out, "Cover: %s\n", state.CoverRef)
	}

	if state.NoLyrics {
		fmt.Fprintln(out, "No lyrics available for this track.")
	} else {
		view.SetLines(state.Lyrics)
		if err := simulatePlayback(ctx, ctrl, listen, speed); err != nil {
			return err
		}
	}

	fmt.Fprintln(out)
	for i, c := range state.Candidates {
		fmt.Fprintf(out, "  %d. %s\n", i+1, c)
	}

	for {
		fmt.Fprintf(out, "Your answer [1-%d]: ", len(state.Candidates))
		choice, err := readChoice(in, len(state.Candidates))
		if errors.Is(err, io.EOF) {
			return errors.New("no answer given")
		}
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}

		correct, err := ctrl.SelectAnswer(state.Candidates[choice-1].ID)
		if err != nil {
			return err
		}

		final := ctrl.Snapshot()
		if correct {
			color.New(color.FgGreen, color.Bold).Fprintln(out, "Correct!")
		} else {
			color.New(color.FgRed, color.Bold).Fprintf(out, "Wrong, it was %s\n", final.Correct)
		}
		return nil
	}
}

func simulatePlayback(ctx context.Context, ctrl *page.Controller, listen, speed float64) error {
	clock := &stepClock{}
	for clock.CurrentTime() <= listen {
		ctrl.Tick(clock)
		clock.Advance(playStep)

		if speed == 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(playStep / speed * float64(time.Second))):
		}
	}
	return nil
}

// readChoice reads a 1-based candidate number.
func readChoice(in *bufio.Reader, n int) (int, error) {
	line, err := in.ReadString('\n')
	if err != nil && (err != io.EOF || strings.TrimSpace(line) == "") {
		return 0, err
	}

	choice, convErr := strconv.Atoi(strings.TrimSpace(line))
	if convErr != nil || choice < 1 || choice > n {
		return 0, fmt.Errorf("please enter a number between 1 and %d", n)
	}
	return choice, nil
}
