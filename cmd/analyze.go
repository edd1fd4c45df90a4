package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"menulens/internal/config"
	"menulens/internal/logger"
	"menulens/internal/menu"
	"menulens/internal/processor"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [image-file]",
	Short: "Analyze a restaurant menu photo",
	Long: `Process a menu photo: extract the dishes, find food photographs for each
one and generate descriptions.

Extraction uses OpenAI vision when OPENAI_API_KEY is set, falling back to
Google Cloud OCR plus text parsing when Google credentials are configured.
Image search and description generation degrade gracefully when their
providers are not configured.

Supported image formats: JPEG, PNG, WebP (100 bytes to 50MB).`,
	Example: `  # Analyze a menu photo and print the dishes
  menulens analyze menu.jpg

  # Save the full result as JSON
  menulens analyze menu.jpg --json -o result.json

  # Watch progress while processing
  menulens analyze menu.jpg --progress`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	analyzeCmd.Flags().Bool("json", false, "Output as JSON")
	analyzeCmd.Flags().Bool("progress", false, "Print progress updates while processing")
	analyzeCmd.Flags().Int("timeout", 300, "Processing timeout in seconds")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("analyze")

	outputPath, _ := cmd.Flags().GetString("output")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	showProgress, _ := cmd.Flags().GetBool("progress")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	imagePath := args[0]

	log.Info().
		Str("file", imagePath).
		Str("output", outputPath).
		Bool("json", jsonOutput).
		Int("timeout", timeoutSecs).
		Msg("Starting menu analysis")

	imageData, err := readImageFile(imagePath, log)
	if err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("Configuration error")
		return fmt.Errorf("configuration error: %w", err)
	}

	proc, err := processor.New(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create processor")
		return fmt.Errorf("failed to create processor: %w", err)
	}

	var callback processor.ProgressCallback
	if showProgress {
		callback = func(_ string, state menu.ProcessingState) {
			fmt.Fprintf(os.Stderr, "[%3d%%] %s\n", state.Progress, state.Stage)
		}
	}

	result, err := proc.Process(ctx, imageData, callback)
	if err != nil {
		log.Error().Err(err).Msg("Menu analysis failed")
		// A failed run may still have partial errors worth showing.
		if result != nil && len(result.Errors) > 0 {
			for _, procErr := range result.Errors {
				fmt.Fprintf(os.Stderr, "error [%s]: %s\n", procErr.Type, procErr.Message)
			}
		}
		return fmt.Errorf("menu analysis failed: %w", err)
	}

	output, err := formatResult(result, jsonOutput)
	if err != nil {
		return err
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, []byte(output), 0o644); err != nil {
			log.Error().Err(err).Str("output", outputPath).Msg("Failed to write output file")
			return fmt.Errorf("failed to write output file: %w", err)
		}
		log.Info().Str("output", outputPath).Msg("Result written")
		fmt.Printf("Result written to %s\n", outputPath)
		return nil
	}

	fmt.Print(output)
	return nil
}

// readImageFile loads and sanity-checks the menu photo before processing.
func readImageFile(path string, log zerolog.Logger) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		log.Error().Err(err).Str("file", path).Msg("Cannot access image file")
		return nil, fmt.Errorf("cannot access image file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory, not an image file", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		log.Warn().Str("extension", ext).Msg("Unexpected file extension, attempting anyway")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Error().Err(err).Str("file", path).Msg("Failed to read image file")
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}
	return data, nil
}

// createContextWithTimeout builds the run context, cancelled on SIGINT or
// SIGTERM so a long analysis can be aborted cleanly.
func createContextWithTimeout(timeoutSecs int, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			log.Warn().Str("signal", sig.String()).Msg("Received signal, cancelling")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// formatResult renders the analysis result as JSON or a human-readable
// listing.
func formatResult(result *menu.MenuAnalysisResult, asJSON bool) (string, error) {
	if asJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal result: %w", err)
		}
		return string(data) + "\n", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d dishes in %s\n\n", len(result.Dishes), result.ProcessingTime.Round(time.Millisecond))

	for i, dish := range result.Dishes {
		fmt.Fprintf(&b, "%d. %s", i+1, dish.Dish.Name)
		if dish.Dish.Price != "" {
			fmt.Fprintf(&b, " - %s", dish.Dish.Price)
		}
		fmt.Fprintf(&b, " (confidence %.2f)\n", dish.Dish.Confidence)
		fmt.Fprintf(&b, "   %s\n", dish.Description.Text)
		if dish.Images.Primary != nil {
			fmt.Fprintf(&b, "   image: %s\n", dish.Images.Primary.URL)
		}
		b.WriteString("\n")
	}

	if len(result.Errors) > 0 {
		fmt.Fprintf(&b, "%d issue(s) during processing:\n", len(result.Errors))
		for _, procErr := range result.Errors {
			fmt.Fprintf(&b, "  [%s] %s\n", procErr.Type, procErr.Message)
		}
	}

	return b.String(), nil
}
