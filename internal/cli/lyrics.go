package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mgpai22/lyricquiz/internal/lyrics"
	"github.com/mgpai22/lyricquiz/internal/translate"
	"github.com/spf13/cobra"
)

var lyricsCmd = &cobra.Command{
	Use:   "lyrics",
	Short: "Work with synced LRC lyric files",
}

var lyricsParseCmd = &cobra.Command{
	Use:   "parse [lrc_file]",
	Short: "Print the timed lines of a lyric file as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runLyricsParse,
}

var lyricsAtCmd = &cobra.Command{
	Use:   "at [lrc_file] [seconds]",
	Short: "Print the lyric line active at a playback position",
	Long: `Print the lyric line active at a playback position.

Examples:
  lyricquiz lyrics at song.lrc 62.5`,
	Args: cobra.ExactArgs(2),
	RunE: runLyricsAt,
}

var lyricsFollowCmd = &cobra.Command{
	Use:   "follow [lrc_file]",
	Short: "Replay a lyric file in real time, highlighting the active line",
	Long: `Replay a lyric file in real time and print each line as it becomes
active, the way the guessing page scrolls along with playback.

Examples:
  lyricquiz lyrics follow song.lrc
  lyricquiz lyrics follow song.lrc --from 45 --speed 2`,
	Args: cobra.ExactArgs(1),
	RunE: runLyricsFollow,
}

var lyricsExportCmd = &cobra.Command{
	Use:   "export [lrc_file]",
	Short: "Convert a lyric file to SRT, VTT or LRC",
	Long: `Convert a lyric file to SRT, VTT or LRC. Each line lasts until the next
one starts; the last line is shown for five seconds.

Examples:
  lyricquiz lyrics export song.lrc -f srt
  lyricquiz lyrics export song.lrc -f vtt -o song.vtt`,
	Args: cobra.ExactArgs(1),
	RunE: runLyricsExport,
}

var lyricsTranslateCmd = &cobra.Command{
	Use:   "translate [lrc_file]",
	Short: "Translate a lyric file using AI, keeping its timestamps",
	Long: `Translate the text of every line in a lyric file using AI. Timestamps
are kept as they are.

Examples:
  lyricquiz lyrics translate song.lrc --target-language english
  lyricquiz lyrics translate song.lrc -t spanish --provider openai -f srt`,
	Args: cobra.ExactArgs(1),
	RunE: runLyricsTranslate,
}

func init() {
	rootCmd.AddCommand(lyricsCmd)
	lyricsCmd.AddCommand(
		lyricsParseCmd,
		lyricsAtCmd,
		lyricsFollowCmd,
		lyricsExportCmd,
		lyricsTranslateCmd,
	)

	lyricsParseCmd.Flags().Bool("plain", false, "Print only the text, one line each")

	lyricsFollowCmd.Flags().Float64("from", 0, "Start position in seconds")
	lyricsFollowCmd.Flags().Float64("speed", 1, "Playback speed multiplier")

	lyricsExportCmd.Flags().StringP("format", "f", "srt", "Output format (lrc, srt, vtt)")
	lyricsExportCmd.Flags().StringP("output", "o", "", "Output file path")

	lyricsTranslateCmd.Flags().
		StringP("target-language", "t", "", "Target language for translation (default from config)")
	lyricsTranslateCmd.Flags().
		StringP("language", "l", "", "Language of the lyrics (optional)")
	lyricsTranslateCmd.Flags().
		String("provider", "", "Translation provider (gemini, openai, anthropic)")
	lyricsTranslateCmd.Flags().
		StringP("api-key", "k", "", "API key (or set GEMINI_API_KEY/OPENAI_API_KEY/ANTHROPIC_API_KEY)")
	lyricsTranslateCmd.Flags().
		String("model", "", "Model to use (provider-specific, uses sensible defaults)")
	lyricsTranslateCmd.Flags().
		String("prompt", "", "Additional instructions for the translator")
	lyricsTranslateCmd.Flags().
		Int("concurrency", 0, "Number of parallel translation workers")
	lyricsTranslateCmd.Flags().
		Int("batch-size", 0, "Number of lines per API request")
	lyricsTranslateCmd.Flags().
		StringP("format", "f", "lrc", "Output format (lrc, srt, vtt)")
	lyricsTranslateCmd.Flags().
		StringP("output", "o", "", "Output file path")
}

var errNoSyncedLines = errors.New("no timed lines found")

func readLyricsFile(path string) (lyrics.Track, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("lyric file not found: %s", path)
		}
		return nil, err
	}
	defer f.Close()

	lines, err := lyrics.ParseReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%s: %w", path, errNoSyncedLines)
	}

	logger.Debugw("Parsed lyric file", "path", path, "lines", len(lines))
	return lines, nil
}

func runLyricsParse(cmd *cobra.Command, args []string) error {
	plain, _ := cmd.Flags().GetBool("plain")

	lines, err := readLyricsFile(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if plain {
		_, err := fmt.Fprintln(out, lines.Plain())
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(lines)
}

func runLyricsAt(cmd *cobra.Command, args []string) error {
	t, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid position %q: %w", args[1], err)
	}

	lines, err := readLyricsFile(args[0])
	if err != nil {
		return err
	}

	index := lyrics.CurrentLineIndex(lines, t)
	line, _ := lines.Line(index)
	fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", index, formatStamp(line.Time), line.Text)
	return nil
}

func runLyricsFollow(cmd *cobra.Command, args []string) error {
	from, _ := cmd.Flags().GetFloat64("from")
	speed, _ := cmd.Flags().GetFloat64("speed")
	if speed <= 0 {
		return fmt.Errorf("speed must be positive, got %v", speed)
	}

	lines, err := readLyricsFile(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	view := newTerminalView(cmd.OutOrStdout())
	view.SetLines(lines)
	follower := lyrics.NewFollower(view)
	follower.Reset(lines)

	end := lines[len(lines)-1].Time + lyrics.LastLineDuration.Seconds()
	clock := newWallClock(from, speed)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	follower.Tick(clock)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			follower.Tick(clock)
			if clock.CurrentTime() > end {
				return nil
			}
		}
	}
}

func runLyricsExport(cmd *cobra.Command, args []string) error {
	formatName, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")

	format, err := lyrics.ParseFormat(formatName)
	if err != nil {
		return err
	}

	lines, err := readLyricsFile(args[0])
	if err != nil {
		return err
	}

	if outputPath == "" {
		outputPath = replaceExt(args[0], "", format)
		if outputPath == args[0] {
			return fmt.Errorf("output would overwrite %s: use -o", args[0])
		}
	}

	if err := lyrics.WriteFile(outputPath, format, lines); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Fprintf(cmd.OutOrStdout(), "Lyrics exported: %s (%d lines)\n", absOutput, len(lines))
	return nil
}

func runLyricsTranslate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	lyricPath := args[0]

	targetLang, _ := cmd.Flags().GetString("target-language")
	inputLang, _ := cmd.Flags().GetString("language")
	providerStr, _ := cmd.Flags().GetString("provider")
	apiKey, _ := cmd.Flags().GetString("api-key")
	model, _ := cmd.Flags().GetString("model")
	prompt, _ := cmd.Flags().GetString("prompt")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	formatName, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")

	if targetLang == "" {
		targetLang = cfg.Translate.TargetLanguage
	}
	if providerStr == "" {
		providerStr = cfg.Translate.Provider
	}
	if model == "" {
		model = cfg.Translate.Model
	}
	if concurrency == 0 {
		concurrency = cfg.Translate.Concurrency
	}
	if batchSize == 0 {
		batchSize = cfg.Translate.BatchSize
	}

	if targetLang == "" {
		return fmt.Errorf("target language is required")
	}
	if inputLang != "" &&
		strings.EqualFold(strings.TrimSpace(inputLang), strings.TrimSpace(targetLang)) {
		return fmt.Errorf(
			"input language %q and target language %q cannot be the same",
			inputLang,
			targetLang,
		)
	}
	if concurrency < 0 {
		return fmt.Errorf("concurrency must be positive, got %d", concurrency)
	}
	if batchSize < 0 {
		return fmt.Errorf("batch-size must be positive, got %d", batchSize)
	}

	format, err := lyrics.ParseFormat(formatName)
	if err != nil {
		return err
	}

	provider := translate.Provider(providerStr)
	if apiKey == "" {
		apiKey = cfg.APIKey(providerStr)
	}
	if apiKey == "" {
		return fmt.Errorf(
			"API key is required: use --api-key flag or set %s environment variable",
			apiKeyEnv(provider),
		)
	}

	lines, err := readLyricsFile(lyricPath)
	if err != nil {
		return err
	}

	if outputPath == "" {
		outputPath = replaceExt(lyricPath, targetLang, format)
	}

	logger.Infow("Starting lyrics translation",
		"input", lyricPath,
		"output", outputPath,
		"provider", provider,
		"target_language", targetLang,
		"lines", len(lines),
	)

	translator, err := translate.Factory(ctx, provider, apiKey, translate.Options{
		InputLanguage:  inputLang,
		TargetLanguage: targetLang,
		Model:          model,
		Prompt:         prompt,
		BatchSize:      batchSize,
	})
	if err != nil {
		return fmt.Errorf("failed to create translator: %w", err)
	}

	translated, err := translate.Lyrics(ctx, translator, lines, concurrency)
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}

	if err := lyrics.WriteFile(outputPath, format, translated); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Fprintf(cmd.OutOrStdout(), "Lyrics translated successfully: %s\n", absOutput)
	fmt.Fprintf(cmd.OutOrStdout(), "  Lines: %d\n", len(translated))
	fmt.Fprintf(cmd.OutOrStdout(), "  Target language: %s\n", targetLang)
	return nil
}

func apiKeyEnv(provider translate.Provider) string {
	switch provider {
	case translate.ProviderGemini:
		return "GEMINI_API_KEY"
	case translate.ProviderOpenAI:
		return "OPENAI_API_KEY"
	case translate.ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return "API_KEY"
	}
}

// replaceExt builds song.<tag>.srt style output paths next to the input.
func replaceExt(path, tag string, format lyrics.Format) string {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	if tag != "" {
		base += "." + strings.ToLower(strings.ReplaceAll(strings.TrimSpace(tag), " ", "-"))
	}
	return base + lyrics.ExtensionForFormat(format)
}
