package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Kumkum-Mishra/CleanForge/internal/utils"
)

var (
	profFormat     string
	profOutputPath string
)

var profileCmd = &cobra.Command{
	Use:   "profile <file>",
	Short: "Profile a CSV and compute its quality score",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		ds, err := readDataset(path)
		if err != nil {
			return err
		}
		runner, err := newRunner(false)
		if err != nil {
			return err
		}
		rep, err := runner.Profile(ds)
		if err != nil {
			return err
		}

		var out []byte
		switch strings.ToLower(profFormat) {
		case "", "json":
			out, err = utils.PrettyJSON(rep)
			if err != nil {
				return err
			}
		case "markdown", "md":
			b := rep.Breakdown
			md := rep.Profile.Markdown(filepath.Base(path),
				fmt.Sprintf("Quality score: %.2f / 100", b.Score),
				fmt.Sprintf("Completeness %.2f, duplicates %.2f, outliers %.2f", b.Completeness, b.Duplicate, b.Outlier),
			)
			out = []byte(md)
		default:
			return fmt.Errorf("unsupported --format: %s (use json|markdown)", profFormat)
		}

		if profOutputPath != "" {
			if err := utils.SafeWriteFile(profOutputPath, out); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote profile to %s\n", profOutputPath)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.Flags().StringVarP(&profFormat, "format", "f", "json", "output format: json|markdown")
	profileCmd.Flags().StringVarP(&profOutputPath, "output", "o", "", "optional path to write the profile")
}
