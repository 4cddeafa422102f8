package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/forensics/internal/engine"
	"github.com/sells-group/forensics/internal/fact"
	"github.com/sells-group/forensics/internal/reconcile"
	"github.com/sells-group/forensics/internal/scorer"
	"github.com/sells-group/forensics/internal/store"
)

type analyzeRequest struct {
	Entity         string      `json:"entity"`
	FiscalYear     int         `json:"fiscal_year"`
	UseMarketCap   *bool       `json:"use_market_cap"`
	MarketCap      *float64    `json:"market_cap"`
	BurnGrowthRate *float64    `json:"burn_growth_rate"`
	Facts          []fact.Fact `json:"facts"`
}

type analyzeResponse struct {
	ID string `json:"id,omitempty"`
	*engine.Result
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if s.cfg.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.FiscalYear < 0 {
		writeError(w, http.StatusBadRequest, "fiscal_year must be >= 0")
		return
	}

	opts := s.defaults
	opts.FiscalYear = req.FiscalYear
	if req.UseMarketCap != nil {
		opts.UseMarketCap = *req.UseMarketCap
	}
	if req.MarketCap != nil {
		opts.MarketCap = req.MarketCap
	}
	if req.BurnGrowthRate != nil {
		opts.BurnGrowthRate = req.BurnGrowthRate
	}
	if err := scorer.ValidateConfig(opts.Config); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := engine.Analyze(req.Facts, opts)
	if eris.Is(err, reconcile.ErrFiscalYearUnknown) {
		writeError(w, http.StatusUnprocessableEntity, "cannot infer fiscal year: no fact has a usable period-end date")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := analyzeResponse{Result: res}
	if s.store != nil {
		a, err := store.NewAnalysis(req.Entity, res, opts.Config)
		if err == nil {
			err = s.store.SaveAnalysis(r.Context(), a)
		}
		if err != nil {
			zap.L().Error("api: save analysis", zap.String("entity", req.Entity), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to save analysis")
			return
		}
		resp.ID = a.ID
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "storage not configured")
		return
	}

	q := r.URL.Query()
	filter := store.AnalysisFilter{
		Entity:         q.Get("entity"),
		Rating:         scorer.Rating(q.Get("rating")),
		Interpretation: scorer.Interpretation(q.Get("interpretation")),
	}
	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"fiscal_year", &filter.FiscalYear},
		{"limit", &filter.Limit},
		{"offset", &filter.Offset},
	} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, p.name+" must be a non-negative integer")
			return
		}
		*p.dst = n
	}

	list, err := s.store.ListAnalyses(r.Context(), filter)
	if err != nil {
		zap.L().Error("api: list analyses", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list analyses")
		return
	}
	if list == nil {
		list = []store.Analysis{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"analyses": list})
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "storage not configured")
		return
	}

	id := chi.URLParam(r, "id")
	a, err := s.store.GetAnalysis(r.Context(), id)
	if eris.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "analysis not found")
		return
	}
	if err != nil {
		zap.L().Error("api: get analysis", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get analysis")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// writeJSON answers 500 when v cannot be encoded.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		zap.L().Error("api: encode response", zap.Error(err))
		status = http.StatusInternalServerError
		data = []byte(`{"error":"failed to encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		zap.L().Debug("api: write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
