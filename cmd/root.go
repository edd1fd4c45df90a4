package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"menulens/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "menulens",
	Short: "MenuLens - analyze restaurant menu photos",
	Long: `MenuLens turns a photo of a restaurant menu into structured dish data.

It extracts the dishes from the image using AI vision or OCR, then enriches
each dish with food photographs and a generated description, so diners can
see what they are ordering.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("MenuLens CLI executed")

		fmt.Println("Welcome to MenuLens!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
