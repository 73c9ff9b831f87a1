package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/equity-cli/internal/analyzer"
	"github.com/KaramelBytes/equity-cli/internal/chart"
	"github.com/KaramelBytes/equity-cli/internal/dataset"
	"github.com/KaramelBytes/equity-cli/internal/resolve"
	"github.com/KaramelBytes/equity-cli/internal/utils"
)

var (
	anaFlags        analyzerFlags
	anaTable        bool
	anaJSON         bool
	anaOutputPath   string
	anaChart        bool
	anaNoPrompt     bool
	anaPercentBlack string
	anaFunding      string
	anaScores       []string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [school name]",
	Short: "Compare one school with its peers",
	Long: `Compare one school with its peer group. Without a name argument the school name is
read from standard input. When the school is not in the dataset its figures are asked for
interactively, or taken from --percent-black, --funding and --score.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset()
		if err != nil {
			return err
		}
		var charts *chart.Renderer
		if anaChart {
			charts = chart.NewRenderer(cfg.ChartDir, logger)
		}
		an, err := anaFlags.build(ds, charts)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		in := bufio.NewReader(cmd.InOrStdin())
		name := strings.TrimSpace(strings.Join(args, " "))
		if name == "" {
			fmt.Fprintln(out, "Welcome to the Education Equity Analyzer!")
			fmt.Fprintln(out)
			if name, err = prompt(in, out, "Enter your school name: "); err != nil {
				return err
			}
			if name == "" {
				return fmt.Errorf("a school name is required")
			}
		}

		res, err := an.Analyze(name)
		if errors.Is(err, resolve.ErrNoMatch) {
			res, err = analyzeManual(cmd, an, in, name)
		}
		if err != nil {
			return err
		}

		if anaJSON {
			b, err := utils.PrettyJSON(res.JSON())
			if err != nil {
				return err
			}
			if anaOutputPath == "" {
				fmt.Fprintln(out, string(b))
				return nil
			}
			if err := utils.SafeWriteFile(anaOutputPath, append(b, '\n')); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Fprintf(out, "%s Report written to %s\n", okMark, anaOutputPath)
			return nil
		}

		if anaOutputPath != "" {
			if err := utils.SafeWriteFile(anaOutputPath, []byte(res.Report.Summary+"\n")); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Fprintf(out, "%s Report written to %s\n", okMark, anaOutputPath)
		} else if err := writeReport(out, res.Report, anaTable); err != nil {
			return err
		}
		if anaChart {
			switch {
			case res.Chart != "":
				fmt.Fprintf(out, "%s Chart saved to %s\n", okMark, res.Chart)
			case errors.Is(res.ChartErr, chart.ErrNoChart):
				fmt.Fprintf(out, "%s No chart available due to missing data for this school.\n", warnMark)
			default:
				fmt.Fprintf(out, "%s Chart not rendered: %v\n", warnMark, res.ChartErr)
			}
		}
		return nil
	},
}

// analyzeManual compares a school that is not in the dataset, using figures
// from flags or typed at the prompt.
func analyzeManual(cmd *cobra.Command, an *analyzer.Analyzer, in *bufio.Reader, name string) (*analyzer.Result, error) {
	out := cmd.OutOrStdout()
	ds := an.Dataset()
	metrics := append([]dataset.Metric{dataset.PercentBlack, dataset.Funding}, ds.Schema().ScoreMetrics()...)

	var inputs []string
	switch {
	case manualFlagsSet(cmd):
		inputs = append([]string{anaPercentBlack, anaFunding}, anaScores...)
	case anaNoPrompt:
		msg := fmt.Sprintf("no school found with the name '%s'", name)
		if sg := an.Suggest(name, 3); len(sg) > 0 {
			names := make([]string, len(sg))
			for i, s := range sg {
				names[i] = s.Name
			}
			msg += fmt.Sprintf(" (did you mean: %s?)", strings.Join(names, ", "))
		}
		return nil, fmt.Errorf("%w: %s", resolve.ErrNoMatch, msg)
	default:
		fmt.Fprintf(out, "\nNo school found with the name '%s'. Please enter your school's information.\n", name)
		for _, m := range metrics {
			v, err := prompt(in, out, manualPrompt(m))
			if err != nil {
				return nil, err
			}
			inputs = append(inputs, v)
		}
	}
	rec, err := dataset.ManualRecord(name, metrics, inputs)
	if err != nil {
		return nil, err
	}
	return an.AnalyzeRecord(rec)
}

func manualFlagsSet(cmd *cobra.Command) bool {
	f := cmd.Flags()
	return f.Changed("percent-black") || f.Changed("funding") || f.Changed("score")
}

func manualPrompt(m dataset.Metric) string {
	switch m.Key {
	case dataset.PercentBlack.Key:
		return "Enter % of Black students at your school: "
	case dataset.Funding.Key:
		return "Enter per-student funding at your school ($): "
	case dataset.TestScore.Key:
		return "Enter average test score at your school: "
	default:
		return fmt.Sprintf("Enter %s at your school: ", m.Label)
	}
}

func prompt(in *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := in.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", err
		}
		if line == "" {
			return "", fmt.Errorf("no input for %q", strings.TrimSpace(label))
		}
	}
	return strings.TrimSpace(line), nil
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	anaFlags.register(analyzeCmd, false)
	analyzeCmd.Flags().BoolVar(&anaTable, "table", false, "print metrics as a table")
	analyzeCmd.Flags().BoolVar(&anaJSON, "json", false, "print the report as JSON (chart path included)")
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "write the report to a file instead of stdout")
	analyzeCmd.Flags().BoolVar(&anaChart, "chart", false, "render a comparison chart PNG into chart_dir")
	analyzeCmd.Flags().BoolVar(&anaNoPrompt, "no-prompt", false, "fail instead of asking for figures when the school is not found")
	analyzeCmd.Flags().StringVar(&anaPercentBlack, "percent-black", "", "manual entry: % of Black students")
	analyzeCmd.Flags().StringVar(&anaFunding, "funding", "", "manual entry: funding per student ($)")
	analyzeCmd.Flags().StringSliceVar(&anaScores, "score", nil, "manual entry: score values in dataset order (repeatable)")
}
