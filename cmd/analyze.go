package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/Kumkum-Mishra/CleanForge/internal/utils"
)

var anaOutputPath string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Profile, score and semantically analyze a CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := readDataset(args[0])
		if err != nil {
			return err
		}
		runner, err := newRunner(true)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		rep, err := runner.Analyze(ctx, ds)
		if err != nil {
			return err
		}
		b, err := utils.PrettyJSON(rep)
		if err != nil {
			return err
		}
		if anaOutputPath != "" {
			if err := utils.SafeWriteFile(anaOutputPath, b); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote analysis to %s\n", anaOutputPath)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
		}
		reportUsage(rep.SemanticAnalysis)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the analysis (JSON)")
}
