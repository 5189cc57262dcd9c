package cli

import (
	"context"
	"fmt"

	"github.com/mgpai22/lyricquiz/internal/catalog"
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the track catalog",
}

var catalogImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Load the songs and albums JSON datasets into SQLite",
	Long: `Load the songs and albums JSON datasets into a SQLite database.
Existing rows with the same id are updated.

Examples:
  lyricquiz catalog import --db catalog.db
  lyricquiz catalog import --songs songs.json --albums albums.json --db catalog.db`,
	Args: cobra.NoArgs,
	RunE: runCatalogImport,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogImportCmd)

	catalogImportCmd.Flags().String("songs", "", "Path to songs.json")
	catalogImportCmd.Flags().String("albums", "", "Path to albums.json")
	catalogImportCmd.Flags().String("db", "", "SQLite database to write")
}

func runCatalogImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	applyStringFlag(cmd, "songs", &cfg.SongsPath)
	applyStringFlag(cmd, "albums", &cfg.AlbumsPath)
	applyStringFlag(cmd, "db", &cfg.Database)

	if cfg.Database == "" {
		return fmt.Errorf("database path is required: use --db or set LYRICQUIZ_DB")
	}

	cat, err := catalog.LoadJSON(cfg.SongsPath, cfg.AlbumsPath)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	tracks, err := cat.Tracks(ctx)
	if err != nil {
		return err
	}

	store, err := catalog.OpenStore(cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	logger.Infow("Importing catalog",
		"songs", cfg.SongsPath,
		"albums", cfg.AlbumsPath,
		"db", cfg.Database,
	)

	if err := store.Import(ctx, tracks, cat.Albums()); err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	total, err := store.CountTracks(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tracks and %d albums into %s (%d tracks total)\n",
		len(tracks), len(cat.Albums()), cfg.Database, total)
	return nil
}
