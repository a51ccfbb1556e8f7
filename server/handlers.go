package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/spektr-org/agrolens/engine"
	"github.com/spektr-org/agrolens/narrative"
	rendering "github.com/spektr-org/agrolens/render"
)

// ============================================================================
// REQUEST / RESPONSE TYPES
// ============================================================================

// SummaryRequest asks for one selection. Narrative and chart are opt-in.
type SummaryRequest struct {
	engine.FilterSpec
	Narrative bool `json:"narrative,omitempty"`
	Chart     bool `json:"chart,omitempty"`
}

// SummaryResponse carries the bundle and whatever was asked for with it.
type SummaryResponse struct {
	Bundle   *engine.SummaryBundle  `json:"bundle"`
	Report   *narrative.Report      `json:"report,omitempty"`
	Chart    *rendering.ChartConfig `json:"chart,omitempty"`
	Cached   bool                   `json:"cached"`
	Warnings []string               `json:"warnings,omitempty"`
}

// ComparisonRequest asks for several selections at once.
type ComparisonRequest struct {
	Filters []engine.FilterSpec `json:"filters"`
	Chart   bool                `json:"chart,omitempty"`
}

// ComparisonResponse keeps the order of ComparisonRequest.Filters.
type ComparisonResponse struct {
	Results []engine.Comparison    `json:"results"`
	Chart   *rendering.ChartConfig `json:"chart,omitempty"`
}

// ============================================================================
// HANDLERS
// ============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status":       "ok",
		"observations": s.data.Len(),
		"version":      engine.Version,
	})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.catalog)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	var req SummaryRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		_ = render.Render(w, r, errBadRequest("invalid JSON body"))
		return
	}

	spec, warnings := s.prepare(req.FilterSpec)
	bundle, cached, err := s.summarize(spec)
	if err != nil {
		_ = render.Render(w, r, errFromPipeline(err))
		return
	}

	resp := SummaryResponse{Bundle: bundle, Cached: cached, Warnings: warnings}
	if req.Narrative {
		report, err := s.narrator.Narrate(r.Context(), bundle)
		if err != nil {
			s.logger.Warn("narrator failed, using rule-based report", zap.Error(err))
			fb := narrative.Fallback(bundle)
			report = &fb
		}
		resp.Report = report
	}
	if req.Chart {
		resp.Chart = rendering.BuildChart(bundle)
	}
	render.JSON(w, r, resp)
}

func (s *Server) handleComparison(w http.ResponseWriter, r *http.Request) {
	var req ComparisonRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		_ = render.Render(w, r, errBadRequest("invalid JSON body"))
		return
	}
	if len(req.Filters) == 0 {
		_ = render.Render(w, r, errBadRequest("filters must not be empty"))
		return
	}
	if limit := s.cfg.MaxComparisons; limit > 0 && len(req.Filters) > limit {
		_ = render.Render(w, r, errBadRequest(fmt.Sprintf("at most %d filters per comparison", limit)))
		return
	}

	specs := make([]engine.FilterSpec, len(req.Filters))
	for i, f := range req.Filters {
		specs[i], _ = s.prepare(f)
	}

	results, err := engine.Compare(r.Context(), s.data, specs, s.opts...)
	if err != nil {
		_ = render.Render(w, r, errFromPipeline(err))
		return
	}

	bundles := make([]*engine.SummaryBundle, len(results))
	for i, res := range results {
		bundles[i] = res.Bundle
		if res.Bundle != nil {
			s.metrics.IncrementTrend(res.Bundle.Trend)
		}
	}

	resp := ComparisonResponse{Results: results}
	if req.Chart {
		resp.Chart = rendering.BuildComparisonChart(bundles)
	}
	render.JSON(w, r, resp)
}

// handleChartPNG draws the trend chart for a selection given as query
// parameters: domain, metric, commodity, country, from, to.
func (s *Server) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	spec := engine.FilterSpec{
		Domain:    q.Get("domain"),
		Metric:    q.Get("metric"),
		Commodity: q.Get("commodity"),
		Country:   q.Get("country"),
	}
	var err error
	if spec.YearStart, err = yearParam(q.Get("from")); err != nil {
		_ = render.Render(w, r, errBadRequest(err.Error()))
		return
	}
	if spec.YearEnd, err = yearParam(q.Get("to")); err != nil {
		_ = render.Render(w, r, errBadRequest(err.Error()))
		return
	}

	spec, _ = s.prepare(spec)
	bundle, _, err := s.summarize(spec)
	if err != nil {
		_ = render.Render(w, r, errFromPipeline(err))
		return
	}

	var buf bytes.Buffer
	if err := rendering.WritePNG(&buf, rendering.BuildChart(bundle), 0, 0); err != nil {
		s.logger.Error("chart rendering failed", zap.Error(err))
		_ = render.Render(w, r, errFromPipeline(err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}

// ============================================================================
// HELPERS
// ============================================================================

// prepare canonicalises names against the catalogue. Values the catalogue
// does not know are kept and reported as warnings; uploaded data may use
// names outside it.
func (s *Server) prepare(spec engine.FilterSpec) (engine.FilterSpec, []string) {
	if s.catalog == nil {
		return spec, nil
	}
	spec = s.catalog.Normalize(spec)
	if err := s.catalog.Check(spec); err != nil {
		return spec, []string{err.Error()}
	}
	return spec, nil
}

func (s *Server) summarize(spec engine.FilterSpec) (*engine.SummaryBundle, bool, error) {
	compute := func() (*engine.SummaryBundle, error) {
		return engine.Summarize(s.data, spec, s.opts...)
	}

	if s.cache == nil {
		b, err := compute()
		if err == nil {
			s.metrics.IncrementTrend(b.Trend)
		}
		return b, false, err
	}

	b, hit, err := s.cache.GetOrCompute(spec, compute)
	if err != nil {
		return nil, false, err
	}
	s.metrics.IncrementCache(hit)
	s.metrics.IncrementTrend(b.Trend)
	return b, hit, nil
}

func yearParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	y, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid year %q", v)
	}
	return y, nil
}
