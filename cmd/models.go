package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Kumkum-Mishra/CleanForge/internal/ai"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List LLM providers with their default model and pricing",
	Example: `  cleanforge models
  cleanforge --provider anthropic semantic data.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "PROVIDER\tDEFAULT MODEL\tCONTEXT\tUSD/1K IN\tUSD/1K OUT")
		for _, p := range ai.Providers() {
			m := ai.DefaultModel(p)
			mi, ok := ai.LookupModel(m)
			if !ok {
				fmt.Fprintf(tw, "%s\t%s\t-\t-\t-\n", p, m)
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%.5f\t%.5f\n", p, m, humanize.Comma(int64(mi.ContextTokens)), mi.InputPerK, mi.OutputPerK)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
