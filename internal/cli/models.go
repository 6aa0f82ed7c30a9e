package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"att/internal/transcribe"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List whisper model sizes and their download state",
	RunE:  runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	for _, opt := range transcribe.ModelCatalog() {
		state := "not downloaded"
		if opt.Downloaded {
			state = "cached"
		}
		fmt.Fprintf(out, "%-10s %-9s %-15s %s\n", opt.ID, opt.SizeLabel, state, opt.Description)
	}
	return nil
}
