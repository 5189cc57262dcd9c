package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/mgpai22/lyricquiz/internal/catalog"
	"github.com/mgpai22/lyricquiz/internal/quiz"
	"github.com/spf13/cobra"
)

var roundCmd = &cobra.Command{
	Use:   "round",
	Short: "Select one quiz round and print it",
	Long: `Select a correct track and its candidates from the catalog, the way
the guessing page does, and print the result.

Examples:
  lyricquiz round
  lyricquiz round --english-only --seed 42
  lyricquiz round --json`,
	Args: cobra.NoArgs,
	RunE: runRound,
}

func init() {
	rootCmd.AddCommand(roundCmd)

	roundCmd.Flags().Bool("english-only", false, "Exclude tracks whose titles contain CJK characters")
	roundCmd.Flags().Uint64("seed", 0, "Seed for a reproducible round (0 picks a random seed)")
	roundCmd.Flags().Bool("json", false, "Print the round as JSON")
}

func runRound(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	englishOnly := cfg.EnglishOnly
	if cmd.Flags().Changed("english-only") {
		englishOnly, _ = cmd.Flags().GetBool("english-only")
	}
	seed, _ := cmd.Flags().GetUint64("seed")
	asJSON, _ := cmd.Flags().GetBool("json")

	repo, closeRepo, err := openRepository(ctx)
	if err != nil {
		return err
	}
	defer closeRepo()

	tracks, err := repo.Tracks(ctx)
	if err != nil {
		return fmt.Errorf("failed to load tracks: %w", err)
	}

	round, err := policyForSeed(seed).SelectRound(tracks, englishOnly)
	if err != nil {
		return err
	}

	logger.Debugw("Round selected",
		"tracks", len(tracks),
		"english_only", englishOnly,
		"position", round.Position(),
	)

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(round)
	}

	cover, err := catalog.CoverRef(ctx, repo, round.Correct)
	if err != nil {
		logger.Debugw("No cover for track", "track", round.Correct.ID, "error", err)
	}
	printRound(out, round, cover)
	return nil
}

func policyForSeed(seed uint64) *quiz.Policy {
	if seed == 0 {
		return quiz.NewPolicy(nil)
	}
	return quiz.NewPolicy(rand.NewPCG(seed, seed))
}

func printRound(w io.Writer, round quiz.Round, cover string) {
	fmt.Fprintf(w, "Round %d\n", round.ID)
	for i, c := range round.Candidates {
		marker := " "
		if c.ID == round.Correct.ID {
			marker = "*"
		}
		fmt.Fprintf(w, "  %s %d. %s\n", marker, i+1, c)
	}
	if cover != "" {
		fmt.Fprintf(w, "  Cover: %s\n", cover)
	}
}
