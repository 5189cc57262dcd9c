package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mgpai22/lyricquiz/internal/fetch"
	"github.com/mgpai22/lyricquiz/internal/quiz"
	"github.com/mgpai22/lyricquiz/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the quiz HTTP API",
	Long: `Serve the quiz HTTP API used by the guessing page.

Endpoints:
  GET /api/round?englishOnly=true
  GET /api/fetch-audio?songCID=ID
  GET /api/fetch-album-art?albumLink=URL
  GET /api/lyrics?songCID=ID
  GET /api/lyrics/line?songCID=ID&t=SECONDS
  GET /healthz

Examples:
  lyricquiz serve
  lyricquiz serve --addr :9000 --db catalog.db`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (default :8080)")
	serveCmd.Flags().String("songs", "", "Path to songs.json")
	serveCmd.Flags().String("albums", "", "Path to albums.json")
	serveCmd.Flags().String("db", "", "SQLite catalog database (overrides the JSON files)")
	serveCmd.Flags().String("upstream", "", "Base URL of the music API")
}

func runServe(cmd *cobra.Command, args []string) error {
	applyStringFlag(cmd, "addr", &cfg.Addr)
	applyStringFlag(cmd, "songs", &cfg.SongsPath)
	applyStringFlag(cmd, "albums", &cfg.AlbumsPath)
	applyStringFlag(cmd, "db", &cfg.Database)
	applyStringFlag(cmd, "upstream", &cfg.UpstreamURL)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := openRepository(ctx)
	if err != nil {
		return err
	}
	defer closeRepo()

	srv := server.New(
		repo,
		quiz.NewPolicy(nil),
		fetch.New(cfg.UpstreamURL),
		logger,
	)

	logger.Infow("Starting quiz server",
		"addr", cfg.Addr,
		"upstream", cfg.UpstreamURL,
	)
	return srv.Run(ctx, cfg.Addr)
}

// applyStringFlag overrides dst only when the flag was set explicitly.
func applyStringFlag(cmd *cobra.Command, name string, dst *string) {
	if cmd.Flags().Changed(name) {
		*dst, _ = cmd.Flags().GetString(name)
	}
}
