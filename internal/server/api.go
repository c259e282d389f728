package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"crisisReplay/internal/crisis"
	"crisisReplay/internal/finance"
	"crisisReplay/internal/replay"
	"crisisReplay/internal/report"
	"crisisReplay/internal/storage"
)

// RunHistory reads recorded runs. storage.Store implements it.
type RunHistory interface {
	RecentRuns(ctx context.Context, limit int) ([]storage.Run, error)
	RunCounts(ctx context.Context, since time.Time) (map[string]int, error)
}

// API serves price data, replays, reports and charts over HTTP.
type API struct {
	svc      *replay.Service
	prices   finance.PriceSource
	history  RunHistory
	validate *validator.Validate
	logger   *zap.Logger
}

// NewAPI builds the HTTP API. history may be nil, which disables the run
// history routes.
func NewAPI(svc *replay.Service, prices finance.PriceSource, history RunHistory, logger *zap.Logger) *API {
	return &API{
		svc:      svc,
		prices:   prices,
		history:  history,
		validate: validator.New(),
		logger:   logger,
	}
}

func (a *API) register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/prices", a.handlePrices)
	mux.HandleFunc("POST /api/simulate", a.handleSimulate)
	mux.HandleFunc("GET /api/crises", a.handleCrises)
	mux.HandleFunc("GET /api/runs", a.handleRuns)
	mux.HandleFunc("GET /report", a.handleReport)
	mux.HandleFunc("GET /chart/equity.png", a.handleChart(equityChart))
	mux.HandleFunc("GET /chart/drawdown.png", a.handleChart(drawdownChart))
	mux.HandleFunc("GET /chart/indexed.png", a.handleChart(indexedChart))
	mux.HandleFunc("GET /chart/runs.png", a.handleRunsChart)
}

type pricesRequest struct {
	Tickers []string `json:"tickers" validate:"required,min=1,max=25,dive,required"`
	Start   string   `json:"start" validate:"required"`
	End     string   `json:"end" validate:"required"`
}

type pricesResponse struct {
	Prices map[string]finance.PriceSeries `json:"prices"`
}

// handlePrices returns daily closes per ticker. A ticker that fails to load
// comes back as an empty list instead of failing the request.
func (a *API) handlePrices(w http.ResponseWriter, r *http.Request) {
	var req pricesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := a.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && verrs[0].Field() == "Tickers" {
			writeError(w, http.StatusBadRequest, "No tickers provided")
			return
		}
		writeError(w, http.StatusBadRequest, "Missing start/end")
		return
	}
	start, err := finance.ParseDate(req.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := finance.ParseDate(req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out := pricesResponse{Prices: make(map[string]finance.PriceSeries, len(req.Tickers))}
	for _, raw := range req.Tickers {
		t := strings.ToUpper(strings.TrimSpace(raw))
		rows, err := a.prices.DailyCloses(r.Context(), t, start, end)
		if err != nil {
			a.logger.Warn("http: ticker failed", zap.String("ticker", t), zap.Error(err))
			rows = nil
		}
		if rows == nil {
			rows = finance.PriceSeries{}
		}
		out.Prices[t] = rows
	}
	writeJSON(w, http.StatusOK, out)
}

type simulateRequest struct {
	Crisis         string             `json:"crisis" validate:"required"`
	Tickers        []string           `json:"tickers" validate:"max=25,dive,required"`
	Weights        map[string]float64 `json:"weights" validate:"dive,keys,required,endkeys,gte=0"`
	Cadence        string             `json:"cadence" validate:"omitempty,oneof=daily weekly monthly"`
	RecoveryMonths *int               `json:"recoveryMonths" validate:"omitempty,gte=0,lte=120"`
	Canada         bool               `json:"canada"`
}

type simulateResponse struct {
	RunID          string                    `json:"runId"`
	Crisis         string                    `json:"crisis"`
	Label          string                    `json:"label"`
	Start          finance.Date              `json:"start"`
	End            finance.Date              `json:"end"`
	RecoveryMonths int                       `json:"recoveryMonths"`
	Cadence        finance.Cadence           `json:"cadence"`
	Tickers        []string                  `json:"tickers"`
	Dropped        []string                  `json:"dropped"`
	Warning        string                    `json:"warning,omitempty"`
	Result         *finance.SimulationResult `json:"result"`
}

func (a *API) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var body simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := a.validate.Struct(body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := replay.Request{
		Crisis:         body.Crisis,
		Tickers:        body.Tickers,
		Weights:        body.Weights,
		Cadence:        finance.Cadence(body.Cadence),
		RecoveryMonths: -1,
		Canada:         body.Canada,
		Source:         "http",
	}
	if body.RecoveryMonths != nil {
		req.RecoveryMonths = *body.RecoveryMonths
	}

	out, err := a.svc.Run(r.Context(), req)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, simulateResponse{
		RunID:          out.RunID,
		Crisis:         out.Crisis.Key,
		Label:          out.Crisis.Label,
		Start:          out.Start,
		End:            out.End,
		RecoveryMonths: out.RecoveryMonths,
		Cadence:        out.Cadence,
		Tickers:        out.Tickers,
		Dropped:        out.Dropped,
		Warning:        out.Warning(),
		Result:         out.Result,
	})
}

func (a *API) handleCrises(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Crises         []crisis.Crisis `json:"crises"`
		DefaultTickers []string        `json:"defaultTickers"`
	}{a.svc.Catalog().All(), a.svc.DefaultTickers()})
}

func (a *API) handleRuns(w http.ResponseWriter, r *http.Request) {
	if a.history == nil {
		writeError(w, http.StatusServiceUnavailable, "run history not available")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	runs, err := a.history.RecentRuns(r.Context(), limit)
	if err != nil {
		a.fail(w, err)
		return
	}
	if runs == nil {
		runs = []storage.Run{}
	}
	writeJSON(w, http.StatusOK, struct {
		Runs []storage.Run `json:"runs"`
	}{runs})
}

func (a *API) handleRunsChart(w http.ResponseWriter, r *http.Request) {
	if a.history == nil {
		writeError(w, http.StatusServiceUnavailable, "run history not available")
		return
	}
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	if days <= 0 || days > 365 {
		days = 30
	}
	counts, err := a.history.RunCounts(r.Context(), time.Now().AddDate(0, 0, -days))
	if err != nil {
		a.fail(w, err)
		return
	}
	if len(counts) == 0 {
		writeError(w, http.StatusNotFound, "no replays in the selected period")
		return
	}
	img, err := finance.MakeRunsChart(counts, days)
	if err != nil {
		a.fail(w, err)
		return
	}
	writePNG(w, img)
}

// handleReport runs the replay described by the query and renders it as an
// HTML page with its charts.
func (a *API) handleReport(w http.ResponseWriter, r *http.Request) {
	cmd, err := commandFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := a.svc.Run(r.Context(), replay.FromCommand(cmd, "http"))
	if err != nil {
		a.fail(w, err)
		return
	}

	q := html.EscapeString(r.URL.RawQuery)
	charts := fmt.Sprintf(`<h2>Charts</h2>
<p><img src="/chart/equity.png?%[1]s" alt="equity"></p>
<p><img src="/chart/drawdown.png?%[1]s" alt="drawdown"></p>
<p><img src="/chart/indexed.png?%[1]s" alt="constituents"></p>
`, q)
	page, err := report.HTML(report.Markdown(out), charts)
	if err != nil {
		a.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

type chartKind int

const (
	equityChart chartKind = iota
	drawdownChart
	indexedChart
)

func (a *API) handleChart(kind chartKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cmd, err := commandFromQuery(r.URL.Query())
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		// chart requests follow a /report page and are not recorded again
		out, err := a.svc.Run(r.Context(), replay.FromCommand(cmd, ""))
		if err != nil {
			a.fail(w, err)
			return
		}

		var img []byte
		switch kind {
		case equityChart:
			img, err = finance.MakeEquityChart(out.Title(), out.Result)
		case drawdownChart:
			img, err = finance.MakeDrawdownChart(out.Title()+" • Drawdown", out.Result)
		case indexedChart:
			img, err = finance.MakeIndexedChart(out.Crisis.Label+" • Constituents", out.Basket.Prices, out.Tickers)
		}
		if err != nil {
			a.fail(w, err)
			return
		}
		writePNG(w, img)
	}
}

// commandFromQuery reads a replay from either a whole command in q
// ("covid SPY 60 TLT 40 weekly") or from separate crisis, tickers
// ("SPY:60,TLT:40"), cadence, recovery and ca parameters.
func commandFromQuery(v url.Values) (*finance.ReplayCommand, error) {
	if q := strings.TrimSpace(v.Get("q")); q != "" {
		return finance.ParseReplayCommand(q)
	}
	c := strings.TrimSpace(v.Get("crisis"))
	if c == "" {
		return nil, fmt.Errorf("missing crisis")
	}
	parts := []string{c}
	if t := v.Get("tickers"); t != "" {
		parts = append(parts, strings.NewReplacer(",", " ", ":", " ", "=", " ").Replace(t))
	}
	if cad := v.Get("cadence"); cad != "" {
		parts = append(parts, "cadence="+cad)
	}
	if rec := v.Get("recovery"); rec != "" {
		parts = append(parts, "recovery="+rec)
	}
	if ca, _ := strconv.ParseBool(v.Get("ca")); ca {
		parts = append(parts, "ca")
	}
	return finance.ParseReplayCommand(strings.Join(parts, " "))
}

func isClientError(err error) bool {
	for _, target := range []error{
		replay.ErrUnknownCrisis,
		finance.ErrNoPositiveWeight,
		finance.ErrInsufficientData,
		finance.ErrInsufficientAlignedData,
		finance.ErrUnknownCadence,
		finance.ErrNoUsableTickers,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (a *API) fail(w http.ResponseWriter, err error) {
	if isClientError(err) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	a.logger.Error("http: request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writePNG(w http.ResponseWriter, img []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "max-age=600")
	_, _ = w.Write(img)
}
