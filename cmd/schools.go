package cmd

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/equity-cli/internal/compare"
	"github.com/KaramelBytes/equity-cli/internal/dataset"
)

var (
	schoolsLike  string
	schoolsLimit int
)

var schoolsCmd = &cobra.Command{
	Use:   "schools",
	Short: "List the schools in the dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if schoolsLike != "" {
			return listSimilar(cmd, ds)
		}
		if ds.Len() == 0 {
			fmt.Fprintln(out, "(no schools)")
			return nil
		}
		metrics := append([]dataset.Metric{dataset.PercentBlack}, ds.Metrics()...)
		header := []string{"School"}
		for _, m := range metrics {
			header = append(header, m.Label)
		}
		tw := tablewriter.NewWriter(out)
		tw.SetHeader(header)
		tw.SetAutoWrapText(false)
		for _, r := range ds.Records() {
			row := []string{r.Name()}
			for _, m := range metrics {
				if v, ok := r.Value(m); ok {
					row = append(row, compare.FormatValue(m, v))
				} else {
					row = append(row, "-")
				}
			}
			tw.Append(row)
		}
		tw.Render()
		fmt.Fprintf(out, "%d schools (%s schema) in %s\n", ds.Len(), ds.Schema(), ds.Name())
		return nil
	},
}

func listSimilar(cmd *cobra.Command, ds *dataset.Dataset) error {
	out := cmd.OutOrStdout()
	an, err := (&analyzerFlags{fuzzy: true}).build(ds, nil)
	if err != nil {
		return err
	}
	sg := an.Suggest(schoolsLike, schoolsLimit)
	if len(sg) == 0 {
		fmt.Fprintf(out, "No schools resemble '%s'.\n", schoolsLike)
		return nil
	}
	tw := tablewriter.NewWriter(out)
	tw.SetHeader([]string{"School", "Similarity"})
	for _, s := range sg {
		tw.Append([]string{s.Name, fmt.Sprintf("%.2f", s.Score)})
	}
	tw.Render()
	return nil
}

func init() {
	rootCmd.AddCommand(schoolsCmd)
	schoolsCmd.Flags().StringVar(&schoolsLike, "like", "", "show the schools whose names are closest to this one")
	schoolsCmd.Flags().IntVar(&schoolsLimit, "limit", 5, "maximum names shown with --like")
}
