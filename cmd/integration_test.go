package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/equity-cli/internal/analyzer"
)

const schoolCSV = `school_name,percent_black,funding_per_student,test_score
School A,60,5000,70
School B,40,8000,90
Central High School,72,9000,68
`

// resetFlags restores every flag to its default so bound variables do not
// leak between invocations of rootCmd.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sc := range c.Commands() {
		resetFlags(sc)
	}
}

// runCmd executes the root command with args and stdin, returning stdout.
func runCmd(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// setupHome isolates HOME and writes the fixture dataset, returning its path.
func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("EQUITY_CHART_DIR", filepath.Join(home, "static"))
	path := filepath.Join(home, "school_data.csv")
	if err := os.WriteFile(path, []byte(schoolCSV), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	return path
}

func TestCLI_AnalyzeTwoSchoolExample(t *testing.T) {
	data := setupHome(t)
	out, err := runCmd(t, "", "analyze", "--data", data, "school a")
	if err != nil {
		t.Fatalf("analyze: %v\n%s", err, out)
	}
	for _, want := range []string{
		"Analyzing school data for 'School A'...",
		"Your school has 60.0% Black students and receives $5,000.00 per student.",
		"That's $2,000.00 less than similar schools on average.",
		"Score difference: -1.0 points",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestCLI_AnalyzePromptsForName(t *testing.T) {
	data := setupHome(t)
	out, err := runCmd(t, "School B\n", "analyze", "--data", data)
	if err != nil {
		t.Fatalf("analyze: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Welcome to the Education Equity Analyzer!") || !strings.Contains(out, "Enter your school name: ") {
		t.Fatalf("prompt not shown:\n%s", out)
	}
	if !strings.Contains(out, "Analyzing school data for 'School B'...") {
		t.Fatalf("report not printed:\n%s", out)
	}
}

func TestCLI_AnalyzeManualFallback(t *testing.T) {
	data := setupHome(t)
	out, err := runCmd(t, "30\n7000\n85\n", "analyze", "--data", data, "Riverside")
	if err != nil {
		t.Fatalf("analyze: %v\n%s", err, out)
	}
	if !strings.Contains(out, "No school found with the name 'Riverside'. Please enter your school's information.") {
		t.Fatalf("fallback message missing:\n%s", out)
	}
	if !strings.Contains(out, "That's $1,000.00 less than similar schools on average.") {
		t.Fatalf("manual comparison wrong:\n%s", out)
	}

	out, err = runCmd(t, "130\n7000\n85\n", "analyze", "--data", data, "Riverside")
	if err == nil || !strings.Contains(err.Error(), "must be between 0 and 100") {
		t.Fatalf("expected range error, got %v\n%s", err, out)
	}

	out, err = runCmd(t, "", "analyze", "--data", data, "--percent-black", "80", "--funding", "9500", "--score", "60", "Riverside")
	if err != nil {
		t.Fatalf("manual flags: %v\n%s", err, out)
	}
	if !strings.Contains(out, "That's $2,500.00 more than similar schools on average.") {
		t.Fatalf("manual flag comparison wrong:\n%s", out)
	}
}

func TestCLI_AnalyzeNoPromptFails(t *testing.T) {
	data := setupHome(t)
	_, err := runCmd(t, "", "analyze", "--data", data, "--no-prompt", "centrel high")
	if err == nil || !strings.Contains(err.Error(), "did you mean: Central High School") {
		t.Fatalf("expected no-match error with hint, got %v", err)
	}
	out, err := runCmd(t, "", "analyze", "--data", data, "--fuzzy", "centrel high")
	if err != nil {
		t.Fatalf("fuzzy analyze: %v", err)
	}
	if !strings.Contains(out, "'Central High School'") {
		t.Fatalf("fuzzy match not used:\n%s", out)
	}
}

func TestCLI_AnalyzeMissingDataFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	_, err := runCmd(t, "", "analyze", "--data", filepath.Join(home, "nope.csv"), "School A")
	if err == nil || !strings.Contains(err.Error(), "data file missing") {
		t.Fatalf("expected missing data error, got %v", err)
	}
}

func TestCLI_AnalyzeTableOutputAndChart(t *testing.T) {
	data := setupHome(t)
	out, err := runCmd(t, "", "analyze", "--data", data, "--table", "--chart", "Central High School")
	if err != nil {
		t.Fatalf("analyze: %v\n%s", err, out)
	}
	if !strings.Contains(out, "FUNDING PER STUDENT") && !strings.Contains(out, "Funding per Student") {
		t.Fatalf("table missing funding row:\n%s", out)
	}
	if !strings.Contains(out, "Chart saved to") {
		t.Fatalf("chart not reported:\n%s", out)
	}
	charts, _ := filepath.Glob(filepath.Join(os.Getenv("EQUITY_CHART_DIR"), "chart_*.png"))
	if len(charts) != 1 {
		t.Fatalf("expected one chart, got %v", charts)
	}

	report := filepath.Join(t.TempDir(), "a.txt")
	if _, err := runCmd(t, "", "analyze", "--data", data, "-o", report, "School A"); err != nil {
		t.Fatalf("analyze -o: %v", err)
	}
	b, err := os.ReadFile(report)
	if err != nil || !strings.Contains(string(b), "Analyzing school data for 'School A'...") {
		t.Fatalf("report file: %q %v", b, err)
	}
}

func TestCLI_AnalyzeBatchWritesReportsWithCollisionSuffix(t *testing.T) {
	data := setupHome(t)
	outDir := filepath.Join(t.TempDir(), "reports")
	names := filepath.Join(t.TempDir(), "names.txt")
	if err := os.WriteFile(names, []byte("# schools\nSchool A\nschool a\n\nCentral\nNowhere\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := runCmd(t, "", "analyze-batch", "--data", data, "--out-dir", outDir, names)
	if err == nil || !strings.Contains(err.Error(), "1 of 4 schools could not be analyzed") {
		t.Fatalf("expected one failure, got %v\n%s", err, out)
	}
	if !strings.Contains(out, "[1/4] Processing School A...") {
		t.Fatalf("progress missing:\n%s", out)
	}
	for _, f := range []string{"school-a.report.txt", "school-a__2.report.txt", "central-high-school.report.txt"} {
		if _, err := os.Stat(filepath.Join(outDir, f)); err != nil {
			t.Errorf("missing %s: %v", f, err)
		}
	}

	out, err = runCmd(t, "", "analyze-batch", "--data", data, "--quiet", "School B")
	if err != nil {
		t.Fatalf("batch stdout: %v", err)
	}
	if strings.Contains(out, "Processing") || !strings.Contains(out, "Analyzing school data for 'School B'...") {
		t.Fatalf("quiet output wrong:\n%s", out)
	}
}

func TestCLI_Schools(t *testing.T) {
	data := setupHome(t)
	out, err := runCmd(t, "", "schools", "--data", data)
	if err != nil {
		t.Fatalf("schools: %v", err)
	}
	if !strings.Contains(out, "Central High School") || !strings.Contains(out, "3 schools (basic schema)") {
		t.Fatalf("schools output:\n%s", out)
	}
	out, err = runCmd(t, "", "schools", "--data", data, "--like", "centrel")
	if err != nil {
		t.Fatalf("schools --like: %v", err)
	}
	if !strings.Contains(out, "Central High School") {
		t.Fatalf("--like output:\n%s", out)
	}
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	if _, err := runCmd(t, "", "config", "set", "peer_mode", "rest"); err != nil {
		t.Fatalf("config set: %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, ".equity", "config.yaml")); err != nil {
		t.Fatalf("config not saved: %v", err)
	}
	out, err := runCmd(t, "", "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "peer_mode: rest") || !strings.Contains(out, "listen_addr: :5001") {
		t.Fatalf("config show output:\n%s", out)
	}
	if _, err := runCmd(t, "", "config", "set", "match_threshold", "2"); err == nil {
		t.Fatalf("expected invalid threshold error")
	}
}

func TestCLI_AnalyzeRejectsBadThreshold(t *testing.T) {
	data := setupHome(t)
	for _, v := range []string{"1.5", "-0.2"} {
		_, err := runCmd(t, "", "analyze", "--data", data, "--fuzzy", "--threshold", v, "School A")
		if err == nil || !strings.Contains(err.Error(), "invalid match threshold") {
			t.Fatalf("--threshold %s: expected invalid threshold error, got %v", v, err)
		}
	}
	if _, err := runCmd(t, "", "analyze", "--data", data, "--fuzzy", "--threshold", "0.9", "School A"); err != nil {
		t.Fatalf("valid threshold rejected: %v", err)
	}
}

func TestCLI_AnalyzeManualRejectsNaN(t *testing.T) {
	data := setupHome(t)
	_, err := runCmd(t, "", "analyze", "--data", data, "--percent-black", "NaN", "--funding", "5000", "--score", "70", "Riverside")
	if err == nil || !strings.Contains(err.Error(), "must be a finite number") {
		t.Fatalf("expected finite number error, got %v", err)
	}
}

func TestCLI_AnalyzeJSON(t *testing.T) {
	data := setupHome(t)
	out, err := runCmd(t, "", "analyze", "--data", data, "--json", "School A")
	if err != nil {
		t.Fatalf("analyze --json: %v\n%s", err, out)
	}
	var got analyzer.ReportJSON
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if got.School != "School A" || got.Mode != "demographic" || got.PeerCount != 2 {
		t.Fatalf("unexpected report: %+v", got)
	}
	if len(got.Metrics) != 2 || got.Metrics[0].Delta == nil || *got.Metrics[0].Delta != 2000 {
		t.Fatalf("unexpected funding metric: %+v", got.Metrics)
	}

	report := filepath.Join(t.TempDir(), "a.json")
	if _, err := runCmd(t, "", "analyze", "--data", data, "--json", "-o", report, "School B"); err != nil {
		t.Fatalf("analyze --json -o: %v", err)
	}
	b, err := os.ReadFile(report)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(b, &got); err != nil || got.School != "School B" {
		t.Fatalf("report file: %v %+v", err, got)
	}
}

func TestCLI_AnalyzeBatchJSON(t *testing.T) {
	data := setupHome(t)
	outDir := filepath.Join(t.TempDir(), "reports")
	out, err := runCmd(t, "", "analyze-batch", "--data", data, "--json", "--out-dir", outDir, "School A", "Central High School")
	if err != nil {
		t.Fatalf("analyze-batch --json: %v\n%s", err, out)
	}
	b, err := os.ReadFile(filepath.Join(outDir, "central-high-school.report.json"))
	if err != nil {
		t.Fatalf("json report missing: %v", err)
	}
	var got analyzer.ReportJSON
	if err := json.Unmarshal(b, &got); err != nil || got.School != "Central High School" {
		t.Fatalf("bad json report: %v %+v", err, got)
	}
	if _, err := os.Stat(filepath.Join(outDir, "school-a.report.json")); err != nil {
		t.Fatalf("missing school-a.report.json: %v", err)
	}
}

func TestCLI_NumberFormatFromConfig(t *testing.T) {
	fixture := setupHome(t)
	path := filepath.Join(filepath.Dir(fixture), "euro.csv")
	euro := "school_name;percent_black;funding_per_student;test_score\n" +
		"School A;60;5.000;70,5\n" +
		"School B;40;8.000;90\n" +
		"Central High School;72;9.000;68\n"
	if err := os.WriteFile(path, []byte(euro), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("EQUITY_DELIMITER", ";")
	t.Setenv("EQUITY_DECIMAL_SEPARATOR", "comma")
	t.Setenv("EQUITY_THOUSANDS_SEPARATOR", "dot")
	out, err := runCmd(t, "", "analyze", "--data", path, "School A")
	if err != nil {
		t.Fatalf("analyze: %v\n%s", err, out)
	}
	for _, want := range []string{
		"receives $5,000.00 per student.",
		"That's $2,000.00 less than similar schools on average.",
		"Your school's test score: 70.5",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}

	t.Setenv("EQUITY_THOUSANDS_SEPARATOR", "comma")
	if _, err := runCmd(t, "", "analyze", "--data", path, "School A"); err == nil || !strings.Contains(err.Error(), "must differ") {
		t.Fatalf("expected separator clash error, got %v", err)
	}
}

func TestCLI_SheetFromConfig(t *testing.T) {
	setupHome(t)
	f := excelize.NewFile()
	defer f.Close()
	if _, err := f.NewSheet("Schools"); err != nil {
		t.Fatal(err)
	}
	rows := [][]interface{}{
		{"school_name", "percent_black", "funding_per_student", "test_score"},
		{"School A", 60, 5000, 70},
		{"School B", 40, 8000, 90},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow("Schools", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(t.TempDir(), "schools.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}

	t.Setenv("EQUITY_SHEET", "Missing")
	if _, err := runCmd(t, "", "schools", "--data", path); err == nil || !strings.Contains(err.Error(), `sheet "Missing" not found`) {
		t.Fatalf("expected unknown sheet error, got %v", err)
	}
	t.Setenv("EQUITY_SHEET", "schools")
	out, err := runCmd(t, "", "schools", "--data", path)
	if err != nil {
		t.Fatalf("schools: %v", err)
	}
	if !strings.Contains(out, "School B") || !strings.Contains(out, "2 schools (basic schema)") {
		t.Fatalf("schools output:\n%s", out)
	}
}
