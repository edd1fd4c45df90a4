package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"menulens/internal/config"
	"menulens/internal/logger"
	"menulens/internal/processor"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which pipeline services are configured",
	Long: `Report the configuration state of each pipeline service: dish extraction,
image search and description generation, along with search quota usage and
cache sizes.`,
	Example: `  # Human-readable service status
  menulens status

  # Machine-readable
  menulens status --json`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().Bool("json", false, "Output as JSON")
}

func runStatus(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("status")

	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("Configuration error")
		return fmt.Errorf("configuration error: %w", err)
	}

	ctx := context.Background()
	proc, err := processor.New(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create processor")
		return fmt.Errorf("failed to create processor: %w", err)
	}

	status := proc.Status()

	if jsonOutput {
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Println("MenuLens service status:")
	fmt.Printf("  vision extraction:      %s\n", configuredLabel(status.VisionExtraction))
	fmt.Printf("  OCR extraction:         %s\n", configuredLabel(status.OCRExtraction))
	fmt.Printf("  image search:           %s\n", configuredLabel(status.ImageSearch))
	fmt.Printf("  description generation: %s\n", configuredLabel(status.Descriptions))
	if status.SearchStats != nil {
		fmt.Printf("  search quota:           %d used, %d remaining today\n",
			status.SearchStats.DailyQuotaUsed, status.SearchStats.DailyQuotaRemaining)
	}
	fmt.Printf("  active requests:        %d\n", status.ActiveRequests)

	return nil
}

func configuredLabel(configured bool) string {
	if configured {
		return "configured"
	}
	return "not configured"
}
