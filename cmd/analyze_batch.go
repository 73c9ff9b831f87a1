package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/equity-cli/internal/utils"
)

var (
	abFlags  analyzerFlags
	abOutDir string
	abTable  bool
	abJSON   bool
	abQuiet  bool
)

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <names-file|school names...>",
	Short: "Compare many schools with their peers and write one report per school",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := batchNames(args)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			return fmt.Errorf("no school names given")
		}
		ds, err := loadDataset()
		if err != nil {
			return err
		}
		an, err := abFlags.build(ds, nil)
		if err != nil {
			return err
		}
		if abOutDir != "" {
			if err := utils.EnsureDir(abOutDir); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		total := len(names)
		failed := 0
		for i, name := range names {
			if !abQuiet {
				fmt.Fprintf(out, "[%d/%d] Processing %s...\n", i+1, total, name)
			}
			res, err := an.Analyze(name)
			if err != nil {
				failed++
				logger.Warn("batch analysis failed", zap.String("school", name), zap.Error(err))
				fmt.Fprintf(out, "%s Skipping %s: %v\n", warnMark, name, err)
				continue
			}
			var b strings.Builder
			ext := ".report.txt"
			if abJSON {
				data, err := utils.PrettyJSON(res.JSON())
				if err != nil {
					return err
				}
				b.Write(data)
				b.WriteByte('\n')
				ext = ".report.json"
			} else if err := writeReport(&b, res.Report, abTable); err != nil {
				return err
			}
			if abOutDir == "" {
				fmt.Fprint(out, b.String())
				continue
			}
			outFile, suffixed := utils.UniquePath(abOutDir, utils.Slugify(res.Report.Subject, "school"), ext)
			if suffixed && !abQuiet {
				fmt.Fprintf(out, "%s Detected existing report, writing to %s to avoid overwrite.\n", warnMark, filepath.Base(outFile))
			}
			if err := utils.SafeWriteFile(outFile, []byte(b.String())); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			if !abQuiet {
				fmt.Fprintf(out, "%s Wrote %s\n", okMark, outFile)
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d schools could not be analyzed", failed, total)
		}
		return nil
	},
}

// batchNames reads school names from a single file argument (one per line,
// '#' comments allowed) or takes the arguments themselves as names.
func batchNames(args []string) ([]string, error) {
	if len(args) == 1 {
		if info, err := os.Stat(args[0]); err == nil && !info.IsDir() {
			f, err := os.Open(args[0])
			if err != nil {
				return nil, err
			}
			defer f.Close()
			var names []string
			sc := bufio.NewScanner(f)
			for sc.Scan() {
				line := strings.TrimSpace(sc.Text())
				if line == "" || strings.HasPrefix(line, "#") {
					continue
				}
				names = append(names, line)
			}
			return names, sc.Err()
		}
	}
	var names []string
	for _, a := range args {
		if a = strings.TrimSpace(a); a != "" {
			names = append(names, a)
		}
	}
	return names, nil
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	abFlags.register(analyzeBatchCmd, false)
	analyzeBatchCmd.Flags().StringVar(&abOutDir, "out-dir", "", "directory for <school>.report.txt (or .json) files (stdout if empty)")
	analyzeBatchCmd.Flags().BoolVar(&abTable, "table", false, "write metrics as a table")
	analyzeBatchCmd.Flags().BoolVar(&abJSON, "json", false, "write <school>.report.json files instead of text")
	analyzeBatchCmd.Flags().BoolVar(&abQuiet, "quiet", false, "suppress progress and non-essential output")
}
