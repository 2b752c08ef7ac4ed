package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Kumkum-Mishra/CleanForge/internal/ai"
	"github.com/Kumkum-Mishra/CleanForge/internal/dataset"
	"github.com/Kumkum-Mishra/CleanForge/internal/semantic"
	"github.com/Kumkum-Mishra/CleanForge/internal/utils"
)

var semPrintPrompt bool

var semanticCmd = &cobra.Command{
	Use:   "semantic <file>",
	Short: "Ask the configured LLM what each column means",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := readDataset(args[0])
		if err != nil {
			return err
		}
		if semPrintPrompt {
			return printPrompt(cmd, ds)
		}
		runner, err := newRunner(true)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		rep := runner.Semantic(ctx, ds)
		b, err := utils.PrettyJSON(rep)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		reportUsage(rep.SemanticAnalysis)
		return nil
	},
}

// printPrompt writes the prompt and its estimated size without calling the model.
func printPrompt(cmd *cobra.Command, ds *dataset.Dataset) error {
	n := cfg.SampleValues
	if n <= 0 {
		n = semantic.DefaultSampleSize
	}
	prompt, err := semantic.BuildPrompt(ds, n)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), prompt)
	mi, _ := ai.LookupModel(modelName())
	tokens, over := utils.ExceedsWindow(prompt, mi.ContextTokens)
	fmt.Fprintf(os.Stderr, "Estimated prompt tokens: %s\n", humanize.Comma(int64(tokens)))
	if over {
		fmt.Fprintf(os.Stderr, "⚠ Warning: prompt exceeds %s context window (%s tokens)\n", mi.Name, humanize.Comma(int64(mi.ContextTokens)))
	}
	return nil
}

// reportUsage prints token usage and estimated cost on stderr.
func reportUsage(res semantic.Result) {
	if res.Usage.TotalTokens == 0 {
		return
	}
	line := fmt.Sprintf("Tokens: prompt %s, completion %s", humanize.Comma(int64(res.Usage.PromptTokens)), humanize.Comma(int64(res.Usage.CompletionTokens)))
	if cost, ok := ai.EstimateCostUSD(res.Model, res.Usage); ok {
		line += fmt.Sprintf(", est. cost $%.5f", cost)
	}
	fmt.Fprintln(os.Stderr, line)
}

func init() {
	rootCmd.AddCommand(semanticCmd)
	semanticCmd.Flags().BoolVar(&semPrintPrompt, "print-prompt", false, "print the prompt and exit without calling the model")
}
