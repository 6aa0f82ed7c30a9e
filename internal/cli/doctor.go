package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"att/internal/diagnostics"
	"att/internal/domain"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that ffmpeg, whisper and the output directory are usable",
	RunE:  runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	report := diagnostics.NewChecker().Run(loadSettings())
	printReport(cmd.OutOrStdout(), report)
	if report.HasFailures {
		return errors.New("some checks failed")
	}
	return nil
}

// printReport renders one line per check plus indented detail and hints.
func printReport(out io.Writer, report domain.DiagnosticReport) {
	for _, item := range report.Items {
		mark := "ok"
		if item.Status == domain.DiagnosticStatusFail {
			mark = "FAIL"
		}
		fmt.Fprintf(out, "%-4s %s: %s\n", mark, item.Name, item.Message)
		if item.Detail != "" {
			fmt.Fprintf(out, "     %s\n", item.Detail)
		}
		if item.Status == domain.DiagnosticStatusFail && item.Hint != "" {
			fmt.Fprintf(out, "     hint: %s\n", item.Hint)
		}
	}
}
