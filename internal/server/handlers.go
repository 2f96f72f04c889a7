package server

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/smileynet/quickdash/internal/chart"
	"github.com/smileynet/quickdash/internal/dashboard"
	"github.com/smileynet/quickdash/internal/dataset"
	"github.com/smileynet/quickdash/internal/tab"
)

const dashboardKey = "dashboard"

type pageData struct {
	Title          string
	Slug           string
	IDs            dashboard.ElementIDs
	Tabs           []tab.Definition
	Selected       string
	Content        template.HTML
	IntervalMillis int64
	Store          dashboard.Store
}

type renderRequest struct {
	Tab        string          `json:"tab" binding:"required"`
	Store      dashboard.Store `json:"store"`
	NIntervals int             `json:"n_intervals"`
}

type renderResponse struct {
	Artifact *chart.Artifact `json:"artifact"`
	HTML     template.HTML   `json:"html"`
	Store    dashboard.Store `json:"store"`
}

type timerResponse struct {
	Disabled   bool  `json:"disabled"`
	IntervalMS int64 `json:"interval_ms"`
}

type filterResponse struct {
	Artifact *chart.Artifact `json:"artifact"`
	HTML     template.HTML   `json:"html"`
}

// resolveDashboard looks up the :slug parameter and stores the dashboard in
// the context for the route handlers.
func (s *Server) resolveDashboard(c *gin.Context) {
	d, ok := s.catalog.Lookup(c.Param("slug"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown_dashboard"})
		return
	}
	c.Set(dashboardKey, d)
	c.Next()
}

func current(c *gin.Context) *dashboard.Dashboard {
	return c.MustGet(dashboardKey).(*dashboard.Dashboard)
}

func (s *Server) renderIndex(c *gin.Context) {
	var buf bytes.Buffer
	if err := s.index.Execute(&buf, s.catalog.All()); err != nil {
		s.logger.Error("render_index", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "render_failed"})
		return
	}
	c.Data(http.StatusOK, htmlContentType, buf.Bytes())
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "dashboards": s.catalog.Len()})
}

// renderPage serves the dashboard page with the selected tab (the first
// one unless ?tab= says otherwise) already rendered into a fresh store.
func (s *Server) renderPage(c *gin.Context) {
	d := current(c)
	selected := c.DefaultQuery("tab", d.DefaultTab())

	art, store, err := d.Update(selected, dashboard.NewStore(), 0)
	if err != nil {
		s.fail(c, err)
		return
	}
	content, err := chart.HTML(art)
	if err != nil {
		s.fail(c, err)
		return
	}

	data := pageData{
		Title:          d.Title(),
		Slug:           d.Slug(),
		IDs:            d.IDs(),
		Tabs:           d.Tabs(),
		Selected:       selected,
		Content:        content,
		IntervalMillis: d.IntervalMillis(),
		Store:          store,
	}
	var buf bytes.Buffer
	if err := s.page.Execute(&buf, data); err != nil {
		s.logger.Error("render_page", zap.String("dashboard", d.Slug()), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "render_failed"})
		return
	}
	c.Data(http.StatusOK, htmlContentType, buf.Bytes())
}

// renderTab is the tab selection callback: it returns the artifact for the
// requested tab and the store the page should keep.
func (s *Server) renderTab(c *gin.Context) {
	var req renderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "bad_request", "detail": err.Error()})
		return
	}

	art, store, err := current(c).Update(req.Tab, req.Store, req.NIntervals)
	if err != nil {
		s.fail(c, err)
		return
	}
	html, err := chart.HTML(art)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, renderResponse{Artifact: art, HTML: html, Store: store})
}

// timer tells the page whether its refresh timer should run for ?tab=.
func (s *Server) timer(c *gin.Context) {
	d := current(c)
	c.JSON(http.StatusOK, timerResponse{
		Disabled:   !d.IsTimerEnabled(c.Query("tab")),
		IntervalMS: d.IntervalMillis(),
	})
}

func (s *Server) options(c *gin.Context) {
	opts, err := current(c).Options(c.Param("tab"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"options": opts})
}

// filter redraws a dropdown tab's graph for ?value= from the cached dataset.
func (s *Server) filter(c *gin.Context) {
	art, err := current(c).Filter(c.Param("tab"), c.Query("value"))
	if err != nil {
		s.fail(c, err)
		return
	}
	html, err := chart.HTML(art)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, filterResponse{Artifact: art, HTML: html})
}

// fail maps domain errors onto status codes and stable error names.
func (s *Server) fail(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "render_failed"
	switch {
	case errors.Is(err, dashboard.ErrUnknownTab):
		status, code = http.StatusNotFound, "unknown_tab"
	case errors.Is(err, dashboard.ErrNotDropDown):
		status, code = http.StatusNotFound, "not_dropdown"
	case errors.Is(err, tab.ErrNotCached):
		status, code = http.StatusConflict, "not_cached"
	case errors.Is(err, dataset.ErrLoad):
		code = "load_failed"
	}
	_ = c.Error(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(code, zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, gin.H{"error": code})
}
