package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/KaramelBytes/equity-cli/internal/analyzer"
	"github.com/KaramelBytes/equity-cli/internal/chart"
	"github.com/KaramelBytes/equity-cli/internal/dataset"
	"github.com/KaramelBytes/equity-cli/internal/resolve"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m)
}

const bristolCSV = `school_name,percent_black,funding_per_student,mcas_ela,mcas_math,mcas_science
B.M.C. Durfee High School,12,18000,60,55,
Westport High School,2,16000,70,,
Dartmouth High School,4,,80,65,
`

func newTestServer(t *testing.T, withCharts bool) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "bristol_hs.csv")
	require.NoError(t, os.WriteFile(path, []byte(bristolCSV), 0o644))
	ds, err := dataset.Load(path, dataset.DefaultOptions())
	require.NoError(t, err)

	chartDir := filepath.Join(dir, "static")
	opt := analyzer.Options{Matcher: resolve.Fuzzy{Threshold: resolve.DefaultThreshold}}
	if withCharts {
		opt.Charts = chart.NewRenderer(chartDir, nil)
	}
	return New(Options{Analyzer: analyzer.New(ds, opt), ChartDir: chartDir}), chartDir
}

func postForm(h http.Handler, name string) *httptest.ResponseRecorder {
	form := url.Values{"school_name": {name}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestHomeShowsForm(t *testing.T) {
	s, _ := newTestServer(t, false)
	w := get(s.Handler(), "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `name="school_name"`)
	assert.Contains(t, w.Body.String(), DefaultTitle)
}

func TestFormRendersReportAndChart(t *testing.T) {
	s, _ := newTestServer(t, true)
	w := postForm(s.Handler(), "durfee")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "B.M.C. Durfee High School")
	assert.Contains(t, body, "Percent Black Students: 12.0% (vs Peer Average: 3.0%)")
	assert.Contains(t, body, "MCAS Science Score: Not enough information available.")

	m := regexp.MustCompile(`/static/chart_[0-9a-f]{32}\.png`).FindString(body)
	require.NotEmpty(t, m, "chart image missing")
	img := get(s.Handler(), m)
	assert.Equal(t, http.StatusOK, img.Code)
	assert.Equal(t, "image/png", img.Header().Get("Content-Type"))
}

func TestFormNoMatchSuggests(t *testing.T) {
	s, _ := newTestServer(t, false)
	w := postForm(s.Handler(), "Westpor Academy of Arts")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "No close match found for")
	assert.Contains(t, w.Body.String(), "Did you mean")
}

func TestFormWithoutData(t *testing.T) {
	s := New(Options{})
	w := postForm(s.Handler(), "Durfee")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "Error: Data not loaded.")

	w = get(s.Handler(), "/")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCompareAPI(t *testing.T) {
	s, _ := newTestServer(t, false)
	w := get(s.Handler(), "/api/compare?school=westport")
	require.Equal(t, http.StatusOK, w.Code)

	var got analyzer.ReportJSON
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Westport High School", got.School)
	assert.Equal(t, "rest", got.Mode)
	assert.Equal(t, "All Other Schools", got.PeerGroup)
	assert.Equal(t, 2, got.PeerCount)
	require.Len(t, got.Metrics, 4)

	funding := got.Metrics[0]
	require.NotNil(t, funding.PeerAverage)
	assert.Equal(t, 18000.0, *funding.PeerAverage)
	require.NotNil(t, funding.Delta)
	assert.Equal(t, 2000.0, *funding.Delta)

	math := got.Metrics[2]
	assert.Nil(t, math.Subject)
	assert.Nil(t, math.Delta)
	require.NotNil(t, math.PeerAverage)
	assert.Equal(t, 60.0, *math.PeerAverage)
}

func TestCompareAPIErrors(t *testing.T) {
	s, _ := newTestServer(t, false)
	assert.Equal(t, http.StatusBadRequest, get(s.Handler(), "/api/compare").Code)

	w := get(s.Handler(), "/api/compare?school=zzzzzz")
	assert.Equal(t, http.StatusNotFound, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "suggestions")

	empty := New(Options{})
	assert.Equal(t, http.StatusServiceUnavailable, get(empty.Handler(), "/api/compare?school=x").Code)
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t, false)
	w := get(s.Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","data_loaded":true,"dataset":"bristol_hs.csv","schools":3}`, w.Body.String())
}

func TestRunStopsOnCancel(t *testing.T) {
	s, _ := newTestServer(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
