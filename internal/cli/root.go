package cli

import (
	"context"
	"fmt"

	"github.com/mgpai22/lyricquiz/internal/catalog"
	"github.com/mgpai22/lyricquiz/internal/config"
	"github.com/mgpai22/lyricquiz/internal/logging"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	logger     *logging.Logger
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "lyricquiz",
	Short: "Guess the song from its lyrics",
	Long: `Lyricquiz is a music quiz: it plays a track, scrolls its synced
lyrics along with playback and asks which of four titles is playing.

It can serve the quiz API, run a round in the terminal and work with
LRC lyric files.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.NewLogger(verbose)

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVar(&configPath, "config", "", "Config file (default lyricquiz.yaml if present)")
}

// openRepository prefers the SQLite store when a database is configured and
// falls back to the JSON datasets.
func openRepository(ctx context.Context) (catalog.Repository, func() error, error) {
	if cfg.Database != "" {
		store, err := catalog.OpenStore(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		n, err := store.CountTracks(ctx)
		if err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		logger.Debugw("Opened catalog store", "path", cfg.Database, "tracks", n)
		return store, store.Close, nil
	}

	cat, err := catalog.LoadJSON(cfg.SongsPath, cfg.AlbumsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	logger.Debugw("Loaded catalog",
		"songs", cfg.SongsPath,
		"albums", cfg.AlbumsPath,
		"albums_count", len(cat.Albums()),
	)
	return cat, func() error { return nil }, nil
}
