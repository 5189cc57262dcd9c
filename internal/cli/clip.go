package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/mgpai22/lyricquiz/internal/fetch"
	"github.com/mgpai22/lyricquiz/internal/media"
	"github.com/spf13/cobra"
)

var clipCmd = &cobra.Command{
	Use:   "clip [input]",
	Short: "Cut a short preview clip from a track",
	Long: `Cut a short mp3 preview from a local audio file, an audio URL or a
catalog track. The clip is moved back when it would run past the end of
the track.

Examples:
  lyricquiz clip song.wav --start 45 --duration 10
  lyricquiz clip --song 514515 -o previews/`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClip,
}

func init() {
	rootCmd.AddCommand(clipCmd)

	clipCmd.Flags().String("song", "", "Catalog track id to fetch the audio for")
	clipCmd.Flags().Float64("start", -1, "Clip start in seconds (default from config)")
	clipCmd.Flags().Float64("duration", 0, "Clip length in seconds (default from config)")
	clipCmd.Flags().StringP("bitrate", "b", "", "Output bitrate (e.g. 128k)")
	clipCmd.Flags().StringP("output", "o", "", "Output file, or directory ending in /")
}

func runClip(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	songID, _ := cmd.Flags().GetString("song")
	start, _ := cmd.Flags().GetFloat64("start")
	duration, _ := cmd.Flags().GetFloat64("duration")
	bitrate, _ := cmd.Flags().GetString("bitrate")
	outputPath, _ := cmd.Flags().GetString("output")

	if (len(args) == 0) == (songID == "") {
		return errors.New("pass either an input file or --song")
	}
	if start < 0 {
		start = cfg.Clip.Start
	}
	if duration <= 0 {
		duration = cfg.Clip.Duration
	}
	if bitrate == "" {
		bitrate = cfg.Clip.Bitrate
	}

	input, title, err := resolveClipInput(ctx, args, songID)
	if err != nil {
		return err
	}

	bins, err := media.Locate(cfg.Clip.FFmpegPath)
	if err != nil {
		return err
	}

	opts := media.DefaultClipOptions()
	opts.Start = secondsToDuration(start)
	opts.Duration = secondsToDuration(duration)
	opts.Bitrate = bitrate

	if bins.FFprobe != "" {
		total, err := media.GetDuration(ctx, bins, input)
		if err != nil {
			logger.Warnw("Could not read track length", "input", input, "error", err)
		} else {
			opts.Start, opts.Duration = media.Window(total, opts.Start, opts.Duration)
		}
	}

	outputPath = clipOutputPath(outputPath, title, opts.Start)

	logger.Infow("Cutting clip",
		"input", input,
		"output", outputPath,
		"start", opts.Start,
		"duration", opts.Duration,
	)

	if err := media.Clip(ctx, bins, input, outputPath, opts); err != nil {
		return err
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Fprintf(cmd.OutOrStdout(), "Clip written: %s\n", absOutput)
	return nil
}

// resolveClipInput returns the audio location and a title for naming the clip.
func resolveClipInput(ctx context.Context, args []string, songID string) (string, string, error) {
	if songID == "" {
		input := args[0]
		title := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
		return input, title, nil
	}

	title := songID
	if repo, closeRepo, err := openRepository(ctx); err == nil {
		if track, err := repo.Track(ctx, songID); err == nil {
			title = track.DisplayName
		}
		_ = closeRepo()
	}

	resp, err := fetch.New(cfg.UpstreamURL).AudioDescriptor(ctx, songID)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve audio for %s: %w", songID, err)
	}
	return resp.Data.SourceURL, title, nil
}

func clipOutputPath(output, title string, start time.Duration) string {
	name := media.ClipName(title, start)
	switch {
	case output == "":
		return name
	case strings.HasSuffix(output, "/") || strings.HasSuffix(output, string(filepath.Separator)):
		return filepath.Join(output, name)
	default:
		return output
	}
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
