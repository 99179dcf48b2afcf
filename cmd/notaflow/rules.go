package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gabrielmr/notaflow/internal/common"
	"github.com/gabrielmr/notaflow/internal/config"
	"github.com/gabrielmr/notaflow/internal/extract"
	"github.com/gabrielmr/notaflow/internal/normalize"
	"github.com/gabrielmr/notaflow/internal/report"
	"github.com/gabrielmr/notaflow/internal/rules"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and exercise the classification taxonomy",
	}

	cmd.PersistentFlags().String("rules", "", "rule taxonomy file (default: $HOME/.config/notaflow/rules.yaml)")
	_ = viper.BindPFlag("capture.rules_file", cmd.PersistentFlags().Lookup("rules"))

	cmd.AddCommand(rulesCheckCmd(), rulesTestCmd())
	return cmd
}

func rulesCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the rule file and print the taxonomy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			set, path, err := loadRuleSet()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, report.FormatTitle("TAXONOMIA"))
			fmt.Fprintf(out, "%s · %d categories\n\n", path, len(set))

			keyword := lipgloss.NewStyle().Foreground(report.SubtleColor)
			for _, r := range set {
				switch r.Kind {
				case rules.KindSimple:
					fmt.Fprintf(out, "%s  %s\n", r.Category, keyword.Render(r.Keyword))
				case rules.KindHierarchical:
					trigger := r.Trigger
					if trigger == "" {
						trigger = "(no trigger)"
					}
					fmt.Fprintf(out, "%s  %s\n", r.Category, keyword.Render(trigger))
					for _, sub := range r.Subcategories {
						fmt.Fprintf(out, "  └ %s  %s\n", sub.Name, keyword.Render(sub.Keyword))
					}
				}
			}
			return nil
		},
	}
}

func rulesTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Classify a sample text or PDF against the rule file",
		Long: `Run a sample through the same normalize-and-match pipeline the capture
uses, without touching the staging directory. The sample comes from --text,
--file (plain text) or --pdf.`,
		RunE: runRulesTest,
	}

	cmd.Flags().String("text", "", "literal sample text")
	cmd.Flags().String("file", "", "plain-text file to classify")
	cmd.Flags().String("pdf", "", "PDF file to extract and classify")

	return cmd
}

func runRulesTest(cmd *cobra.Command, _ []string) error {
	text, err := sampleText(cmd)
	if err != nil {
		return err
	}

	set, _, err := loadRuleSet()
	if err != nil {
		return err
	}

	result := rules.NewMatcher(set).Classify(text)
	out := cmd.OutOrStdout()

	compact := truncateForDisplay(normalize.Normalize(text).Compact, 60)
	fmt.Fprintf(out, "normalized: %s\n", compact)

	if !result.Matched() {
		fmt.Fprintln(out, lipgloss.NewStyle().Foreground(report.WarningColor).Render("no rule matched"))
		fmt.Fprintf(out, "would move to: %s\n", strings.Join([]string{"<dest>", "arquivos gerais"}, string(os.PathSeparator)))
		return nil
	}

	fmt.Fprintln(out, lipgloss.NewStyle().Foreground(report.SuccessColor).Render("matched "+result.Label()))
	fmt.Fprintf(out, "would move to: %s\n", strings.Join(append([]string{"<dest>"}, result.Segments...), string(os.PathSeparator)))
	return nil
}

// truncateForDisplay shortens s to max runes, never splitting a multi-byte
// rune mid-sequence.
func truncateForDisplay(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}

func sampleText(cmd *cobra.Command) (string, error) {
	text, _ := cmd.Flags().GetString("text")
	file, _ := cmd.Flags().GetString("file")
	pdfPath, _ := cmd.Flags().GetString("pdf")

	switch {
	case text != "":
		return text, nil
	case file != "":
		data, err := os.ReadFile(config.ExpandPath(file))
		if err != nil {
			return "", fmt.Errorf("failed to read sample file: %w", err)
		}
		return string(data), nil
	case pdfPath != "":
		return extract.NewPDFExtractor().ExtractText(cmd.Context(), config.ExpandPath(pdfPath))
	default:
		return "", common.NewUserError("provide a sample via --text, --file or --pdf", common.ErrMissingConfig)
	}
}

func loadRuleSet() (rules.Set, string, error) {
	path := config.ExpandPath(viper.GetString("capture.rules_file"))
	if path == "" {
		path = config.DefaultRulesPath()
	}
	set, err := rules.Load(path)
	if err != nil {
		return nil, "", common.NewUserError("could not load classification rules", err)
	}
	return set, path, nil
}
