package api

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/saferoute/internal/analysis"
	"github.com/sells-group/saferoute/internal/crime"
	"github.com/sells-group/saferoute/internal/export"
	"github.com/sells-group/saferoute/internal/region"
	"github.com/sells-group/saferoute/internal/route"
)

func urlParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if unescaped, err := url.PathUnescape(v); err == nil {
		v = unescaped
	}
	return strings.TrimSpace(v)
}

// snapshotFor writes a 404 and returns false when the period is not loaded.
func (s *Server) snapshotFor(w http.ResponseWriter, period string) (*crime.Snapshot, bool) {
	snap, ok := s.store.Snapshot(period)
	if !ok {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "unknown period "+period)
		return nil, false
	}
	return snap, true
}

// regionAggregate resolves a region by snapshot key, then by its canonical
// index name. A known region with no incidents gets an empty aggregate.
func (s *Server) regionAggregate(snap *crime.Snapshot, name string) (string, *crime.RegionAggregate, bool) {
	if key, agg, ok := snap.Find(name); ok {
		return key, agg, true
	}
	reg, ok := s.index.Lookup(name)
	if !ok {
		return "", nil, false
	}
	if agg, ok := snap.Regions[reg.Name]; ok {
		return reg.Name, agg, true
	}
	return reg.Name, crime.EmptyAggregate(), true
}

func (s *Server) handlePeriods(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"periods": s.store.Periods()})
}

func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	var snap *crime.Snapshot
	if period := strings.TrimSpace(r.URL.Query().Get("period")); period != "" {
		var ok bool
		if snap, ok = s.snapshotFor(w, period); !ok {
			return
		}
	}
	respondGeoJSON(w, export.RegionsGeoJSON(s.index, snap))
}

// incidentFilter reads the start, end, type and neighbourhood query
// parameters. It writes a 400 and returns false when they do not parse.
func incidentFilter(w http.ResponseWriter, r *http.Request) (crime.IncidentFilter, bool) {
	v := r.URL.Query()
	f, err := crime.ParseIncidentFilter(v.Get("start"), v.Get("end"), v.Get("type"), v.Get("neighbourhood"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return crime.IncidentFilter{}, false
	}
	return f, true
}

// handleStats serves a period's aggregates, re-aggregated over the matching
// incidents when filter parameters are given.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshotFor(w, urlParam(r, "period"))
	if !ok {
		return
	}
	f, ok := incidentFilter(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, snap.Filter(f))
}

func (s *Server) handleIncidents(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshotFor(w, urlParam(r, "period"))
	if !ok {
		return
	}
	f, ok := incidentFilter(w, r)
	if !ok {
		return
	}
	respondGeoJSON(w, export.IncidentsGeoJSON(snap.Incidents(f)))
}

type regionBounds struct {
	Region string       `json:"region"`
	Bounds crime.Extent `json:"bounds"`
}

// handleBounds lists the incident extent of every region with located
// incidents, sorted by name.
func (s *Server) handleBounds(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshotFor(w, urlParam(r, "period"))
	if !ok {
		return
	}
	out := []regionBounds{}
	for _, name := range snap.RegionNames() {
		if b := snap.Regions[name].Bounds; b != nil {
			out = append(out, regionBounds{Region: name, Bounds: *b})
		}
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleRegionStats(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshotFor(w, urlParam(r, "period"))
	if !ok {
		return
	}
	name, agg, ok := s.regionAggregate(snap, urlParam(r, "region"))
	if !ok {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "unknown region "+urlParam(r, "region"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"period":    snap.Period,
		"region":    name,
		"aggregate": agg,
	})
}

func (s *Server) handleTypes(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshotFor(w, urlParam(r, "period"))
	if !ok {
		return
	}
	types := snap.Types
	if types == nil {
		types = []string{}
	}
	respondJSON(w, http.StatusOK, types)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshotFor(w, urlParam(r, "period"))
	if !ok {
		return
	}

	var buf bytes.Buffer
	var err error
	switch format := r.URL.Query().Get("format"); format {
	case "", "csv":
		err = export.WriteCSV(&buf, snap)
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="saferoute_`+snap.Period+`.csv"`)
	case "xlsx":
		err = export.WriteXLSX(&buf, []*crime.Snapshot{snap})
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="saferoute_`+snap.Period+`.xlsx"`)
	default:
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "format must be csv or xlsx")
		return
	}
	if err != nil {
		zap.L().Error("api: export failed", zap.String("period", snap.Period), zap.Error(err))
		w.Header().Del("Content-Disposition")
		respondError(w, http.StatusInternalServerError, "INTERNAL", "export failed")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// parseRouteRequest reads and validates the route query string. The period
// defaults to the most recent loaded period.
func (s *Server) parseRouteRequest(r *http.Request) (route.Query, error) {
	v := r.URL.Query()

	from, err := region.ParsePoint(v.Get("from"))
	if err != nil {
		return route.Query{}, eris.Wrap(route.ErrInvalidInput, "from: "+err.Error())
	}
	to, err := region.ParsePoint(v.Get("to"))
	if err != nil {
		return route.Query{}, eris.Wrap(route.ErrInvalidInput, "to: "+err.Error())
	}
	window, err := route.ParseWindow(v.Get("hours"))
	if err != nil {
		return route.Query{}, err
	}
	req := routeRequest{FromLat: from.Lat, FromLng: from.Lng, ToLat: to.Lat, ToLng: to.Lng}
	if window != nil {
		req.HourStart, req.HourEnd = &window.Start, &window.End
	}
	req.Category = v.Get("category")
	req.Period = strings.TrimSpace(v.Get("period"))
	if req.Period == "" {
		if periods := s.store.Periods(); len(periods) > 0 {
			req.Period = periods[len(periods)-1]
		}
	}

	if err := req.validate(); err != nil {
		return route.Query{}, err
	}
	q := req.query()
	if err := q.CheckFilters(); err != nil {
		return route.Query{}, err
	}
	return q, nil
}

func (s *Server) scoreRequest(w http.ResponseWriter, r *http.Request) (route.Query, *route.Result, bool) {
	q, err := s.parseRouteRequest(r)
	if err != nil {
		var fields fieldErrors
		if errors.As(err, &fields) {
			respondJSON(w, http.StatusBadRequest, errorBody{Error: errorDetail{
				Code: "INVALID_INPUT", Message: "validation failed", Fields: fields,
			}})
			return q, nil, false
		}
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return q, nil, false
	}
	res, err := s.scorer.Score(q)
	if err != nil {
		if eris.Is(err, route.ErrInvalidInput) {
			respondError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
			return q, nil, false
		}
		zap.L().Error("api: score route", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "INTERNAL", "route scoring failed")
		return q, nil, false
	}
	s.metrics.routeScores.WithLabelValues(res.Tier).Observe(float64(res.Score))
	return q, res, true
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	q, res, ok := s.scoreRequest(w, r)
	if !ok {
		return
	}
	if r.URL.Query().Get("format") == "geojson" {
		respondGeoJSON(w, export.RouteGeoJSON(q, res))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"query": q, "result": res})
}

func (s *Server) handleAnalyzeRegion(w http.ResponseWriter, r *http.Request) {
	if s.analyst == nil {
		respondError(w, http.StatusServiceUnavailable, "ANALYSIS_DISABLED", "no analysis model configured")
		return
	}
	snap, ok := s.snapshotFor(w, urlParam(r, "period"))
	if !ok {
		return
	}
	name, agg, ok := s.regionAggregate(snap, urlParam(r, "region"))
	if !ok {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "unknown region "+urlParam(r, "region"))
		return
	}

	s.respondAnalysis(w, r, "region", analysis.RegionPrompt(name, snap.Period, agg), map[string]any{
		"period": snap.Period,
		"region": name,
	})
}

func (s *Server) handleAnalyzeRoute(w http.ResponseWriter, r *http.Request) {
	if s.analyst == nil {
		respondError(w, http.StatusServiceUnavailable, "ANALYSIS_DISABLED", "no analysis model configured")
		return
	}
	q, res, ok := s.scoreRequest(w, r)
	if !ok {
		return
	}
	s.respondAnalysis(w, r, "route", analysis.RoutePrompt(q, res), map[string]any{
		"query":  q,
		"result": res,
	})
}

func (s *Server) respondAnalysis(w http.ResponseWriter, r *http.Request, subject, prompt string, body map[string]any) {
	text, err := s.analyst.Analyze(r.Context(), subject, prompt)
	if err != nil {
		s.metrics.analyses.WithLabelValues(subject, "failed").Inc()
		zap.L().Error("api: analysis failed", zap.String("subject", subject), zap.Error(err))
		respondError(w, http.StatusBadGateway, "ANALYSIS_FAILED", "analysis service unavailable")
		return
	}
	s.metrics.analyses.WithLabelValues(subject, "succeeded").Inc()
	body["analysis"] = text
	respondJSON(w, http.StatusOK, body)
}
