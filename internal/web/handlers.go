package web

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/KaramelBytes/equity-cli/internal/chart"
	"github.com/KaramelBytes/equity-cli/internal/compare"
	"github.com/KaramelBytes/equity-cli/internal/resolve"
)

const (
	msgNotLoaded = "Error: Data not loaded."
	suggestLimit = 3
)

type pageData struct {
	Title       string
	Query       string
	Message     string
	Suggestions []string
	Result      *resultView
}

type resultView struct {
	Heading  string
	Lines    []string
	ChartURL string
	NoChart  bool
}

func (s *Server) registerPageRoutes(r *gin.Engine) {
	r.GET("/", s.homeHandler)
	r.POST("/", s.analyzeFormHandler)
}

func (s *Server) registerAPIRoutes(r *gin.Engine) {
	r.GET("/healthz", s.healthHandler)
	api := r.Group("/api")
	{
		api.GET("/compare", s.compareAPIHandler)
	}
}

func (s *Server) homeHandler(c *gin.Context) {
	c.HTML(http.StatusOK, "page", pageData{Title: s.title})
}

func (s *Server) analyzeFormHandler(c *gin.Context) {
	query := strings.TrimSpace(c.PostForm("school_name"))
	data := pageData{Title: s.title, Query: query}
	if s.an == nil {
		data.Message = msgNotLoaded
		c.HTML(http.StatusServiceUnavailable, "page", data)
		return
	}
	if query == "" {
		data.Message = "Please enter a school name."
		c.HTML(http.StatusBadRequest, "page", data)
		return
	}
	res, err := s.an.Analyze(query)
	switch {
	case errors.Is(err, resolve.ErrNoMatch):
		data.Message = fmt.Sprintf("No close match found for '%s'. Please check the spelling or try again.", query)
		for _, sg := range s.an.Suggest(query, suggestLimit) {
			data.Suggestions = append(data.Suggestions, sg.Name)
		}
		c.HTML(http.StatusNotFound, "page", data)
		return
	case err != nil:
		s.log.Warn("analysis failed", zap.String("query", query), zap.Error(err))
		data.Message = "Error: " + err.Error()
		c.HTML(statusFor(err), "page", data)
		return
	}
	lines := res.Report.Lines()
	view := &resultView{Heading: lines[0], Lines: lines[1:]}
	if res.Chart != "" {
		view.ChartURL = chartURL(res.Chart)
	} else {
		view.NoChart = errors.Is(res.ChartErr, chart.ErrNoChart)
	}
	data.Result = view
	c.HTML(http.StatusOK, "page", data)
}

func (s *Server) compareAPIHandler(c *gin.Context) {
	if s.an == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "data not loaded"})
		return
	}
	query := strings.TrimSpace(c.Query("school"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "school query parameter is required"})
		return
	}
	res, err := s.an.Analyze(query)
	if err != nil {
		body := gin.H{"error": err.Error()}
		if errors.Is(err, resolve.ErrNoMatch) {
			names := make([]string, 0, suggestLimit)
			for _, sg := range s.an.Suggest(query, suggestLimit) {
				names = append(names, sg.Name)
			}
			body["suggestions"] = names
		}
		c.JSON(statusFor(err), body)
		return
	}
	body := res.JSON()
	if body.Chart != "" {
		body.Chart = chartURL(body.Chart)
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) healthHandler(c *gin.Context) {
	if s.an == nil {
		c.JSON(http.StatusOK, gin.H{"status": "degraded", "data_loaded": false})
		return
	}
	ds := s.an.Dataset()
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"data_loaded": true,
		"dataset":     ds.Name(),
		"schools":     ds.Len(),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, resolve.ErrNoMatch):
		return http.StatusNotFound
	case errors.Is(err, compare.ErrEmptyDataset):
		return http.StatusServiceUnavailable
	case errors.Is(err, compare.ErrEmptyPeerGroup), errors.Is(err, compare.ErrMissingMetric):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func chartURL(path string) string {
	return "/static/" + filepath.Base(path)
}
