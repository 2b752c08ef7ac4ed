package cmd

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Kumkum-Mishra/CleanForge/internal/dataset"
	"github.com/Kumkum-Mishra/CleanForge/internal/utils"
)

var (
	cleanOutputPath string
	cleanReportPath string
	cleanPreview    int
)

var cleanCmd = &cobra.Command{
	Use:   "clean <file>",
	Short: "Clean a CSV and report the quality improvement",
	Long: `Runs the cleaning pipeline and prints a JSON report with row counts,
quality before and after, the cleaning log and a preview of the cleaned rows.
Use --output to write the full cleaned dataset as CSV.`,
	Example: `  cleanforge clean customers.csv
  cleanforge clean customers.csv -o cleaned.csv --report report.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := readDataset(args[0])
		if err != nil {
			return err
		}
		runner, err := newRunner(false)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("preview-rows") {
			if cleanPreview < 1 {
				return fmt.Errorf("--preview-rows must be at least 1, got %d", cleanPreview)
			}
			runner.PreviewRows = cleanPreview
		}
		rep, err := runner.Clean(ds)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if cleanOutputPath != "" {
			var buf bytes.Buffer
			if err := dataset.WriteCSV(&buf, rep.Cleaned); err != nil {
				return fmt.Errorf("encode cleaned csv: %w", err)
			}
			if err := utils.SafeWriteFile(cleanOutputPath, buf.Bytes()); err != nil {
				return fmt.Errorf("write cleaned csv: %w", err)
			}
			logger.Info("cleaned dataset written", zap.String("path", cleanOutputPath), zap.Int("rows", rep.RowsAfter))
		}

		b, err := utils.PrettyJSON(rep)
		if err != nil {
			return err
		}
		if cleanReportPath != "" {
			if err := utils.SafeWriteFile(cleanReportPath, b); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Fprintf(out, "✓ Wrote report to %s\n", cleanReportPath)
			if cleanOutputPath != "" {
				fmt.Fprintf(out, "✓ Wrote cleaned data to %s\n", cleanOutputPath)
			}
			return nil
		}
		fmt.Fprintln(out, string(b))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().StringVarP(&cleanOutputPath, "output", "o", "", "write the cleaned dataset as CSV to this path")
	cleanCmd.Flags().StringVar(&cleanReportPath, "report", "", "write the JSON report to this path instead of stdout")
	cleanCmd.Flags().IntVar(&cleanPreview, "preview-rows", 10, "number of cleaned rows in the report preview (at least 1)")
}
