// Package replay runs a weighted basket through a named crisis window.
package replay

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"crisisReplay/internal/crisis"
	"crisisReplay/internal/finance"
	"crisisReplay/internal/storage"
)

var ErrUnknownCrisis = errors.New("unknown crisis")

// RunStore records finished runs. storage.Store implements it.
type RunStore interface {
	SaveRun(ctx context.Context, r storage.Run) error
}

// Request describes one replay. Tickers keep their order; Weights may omit
// tickers, which then weigh 1. With no tickers and no weights the service's
// default basket is used with equal weights.
type Request struct {
	Crisis         string
	Tickers        []string
	Weights        map[string]float64
	Cadence        finance.Cadence
	RecoveryMonths int // negative means the service default
	Canada         bool
	Source         string // who asked: "telegram", "http", "cli"; empty runs are not recorded
}

// FromCommand turns a parsed chat or CLI command into a Request.
func FromCommand(cmd *finance.ReplayCommand, source string) Request {
	return Request{
		Crisis:         cmd.Crisis,
		Tickers:        cmd.Tickers,
		Weights:        cmd.Weights,
		Cadence:        cmd.Cadence,
		RecoveryMonths: cmd.RecoveryMonths,
		Canada:         cmd.Canada,
		Source:         source,
	}
}

// Outcome is a finished replay.
type Outcome struct {
	RunID          string
	Crisis         crisis.Crisis
	Start          finance.Date
	End            finance.Date
	RecoveryMonths int
	Cadence        finance.Cadence
	Tickers        []string // usable tickers, in request order
	Dropped        []string
	Basket         *finance.Basket
	Result         *finance.SimulationResult
}

// Warning explains dropped tickers, or is empty.
func (o *Outcome) Warning() string {
	if o.Basket == nil {
		return ""
	}
	return o.Basket.Warning()
}

// Title is a one-line heading for charts and messages.
func (o *Outcome) Title() string {
	return fmt.Sprintf("%s • %s", o.Crisis.Label, strings.ToUpper(string(o.Cadence)))
}

type Service struct {
	catalog        *crisis.Catalog
	source         finance.PriceSource
	runs           RunStore
	logger         *zap.Logger
	defaultTickers []string
	recoveryMonths int
	simOpts        []finance.Option
	newID          func() string
}

type Option func(*Service)

func WithRunStore(runs RunStore) Option { return func(s *Service) { s.runs = runs } }

func WithDefaultTickers(tickers []string) Option {
	return func(s *Service) { s.defaultTickers = append([]string(nil), tickers...) }
}

func WithRecoveryMonths(n int) Option { return func(s *Service) { s.recoveryMonths = n } }

// WithSimulation passes options such as the initial value and risk-free rate
// to every simulation.
func WithSimulation(opts ...finance.Option) Option {
	return func(s *Service) { s.simOpts = append(s.simOpts, opts...) }
}

func NewService(catalog *crisis.Catalog, source finance.PriceSource, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		catalog:        catalog,
		source:         source,
		logger:         logger,
		defaultTickers: crisis.DefaultTickers,
		recoveryMonths: crisis.DefaultRecoveryMonths,
		newID:          func() string { return uuid.NewString() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) Catalog() *crisis.Catalog { return s.catalog }

// DefaultTickers is the basket used when a request names no tickers.
func (s *Service) DefaultTickers() []string { return append([]string(nil), s.defaultTickers...) }

// Run fetches the basket for the crisis window plus the recovery months,
// simulates it and records the run. Tickers without enough history in the
// window are dropped and reported on the outcome.
func (s *Service) Run(ctx context.Context, req Request) (*Outcome, error) {
	cr, ok := s.catalog.Lookup(req.Crisis)
	if !ok {
		return nil, unknownCrisis(s.catalog, req.Crisis)
	}
	cadence := req.Cadence
	if cadence == "" {
		cadence = finance.Monthly
	}
	p, err := s.prepare(ctx, cr, req)
	if err != nil {
		return nil, err
	}
	return s.simulate(ctx, p, cadence, req.Source)
}

func unknownCrisis(c *crisis.Catalog, q string) error {
	return fmt.Errorf("%w %q (try one of: %s)", ErrUnknownCrisis, q, strings.Join(c.Keys(), ", "))
}

// prepared is a crisis basket that is fetched and ready to simulate at any cadence.
type prepared struct {
	crisis   crisis.Crisis
	start    finance.Date
	end      finance.Date
	recovery int
	basket   *finance.Basket
	prices   map[string]finance.PriceSeries
	weights  map[string]float64
}

func (s *Service) prepare(ctx context.Context, cr crisis.Crisis, req Request) (*prepared, error) {
	recovery := req.RecoveryMonths
	if recovery < 0 {
		recovery = s.recoveryMonths
	}
	tickers, weights := s.basket(req)
	start, end := cr.FetchWindow(recovery)

	basket, err := finance.LoadBasket(ctx, s.source, tickers, start, end, finance.MinCrisisPoints)
	if err != nil {
		return nil, err
	}

	p := &prepared{
		crisis:   cr,
		start:    start,
		end:      end,
		recovery: recovery,
		basket:   basket,
		prices:   make(map[string]finance.PriceSeries, len(basket.Usable)),
		weights:  make(map[string]float64, len(basket.Usable)),
	}
	for _, t := range basket.Usable {
		p.prices[t] = basket.Prices[t]
		p.weights[t] = weights[t]
	}
	return p, nil
}

func (s *Service) simulate(ctx context.Context, p *prepared, cadence finance.Cadence, source string) (*Outcome, error) {
	res, err := finance.Simulate(p.prices, p.weights, cadence, s.simOpts...)
	if err != nil {
		return nil, err
	}

	out := &Outcome{
		RunID:          s.newID(),
		Crisis:         p.crisis,
		Start:          p.start,
		End:            p.end,
		RecoveryMonths: p.recovery,
		Cadence:        cadence,
		Tickers:        p.basket.Usable,
		Dropped:        p.basket.Dropped,
		Basket:         p.basket,
		Result:         res,
	}
	s.record(ctx, source, out)
	s.logger.Info("replay: run finished",
		zap.String("run", out.RunID),
		zap.String("crisis", p.crisis.Key),
		zap.String("cadence", string(cadence)),
		zap.Strings("tickers", out.Tickers),
		zap.Strings("dropped", out.Dropped),
		zap.Float64("total_return", res.Metrics.TotalReturn),
		zap.Float64("max_drawdown", res.Metrics.MaxDrawdown))
	return out, nil
}

// basket resolves the tickers to fetch and their raw weights, applying the
// Canada suffix to both.
func (s *Service) basket(req Request) ([]string, map[string]float64) {
	tickers := req.Tickers
	if len(tickers) == 0 {
		for t := range req.Weights {
			tickers = append(tickers, t)
		}
		if len(tickers) == 0 {
			tickers = s.defaultTickers
		}
	}

	fix := func(t string) string {
		t = strings.ToUpper(strings.TrimSpace(t))
		if req.Canada {
			t = crisis.WithCanadaSuffix(t)
		}
		return t
	}

	outTickers := make([]string, 0, len(tickers))
	weights := make(map[string]float64, len(tickers))
	for _, t := range tickers {
		ft := fix(t)
		if ft == "" {
			continue
		}
		if _, dup := weights[ft]; !dup {
			outTickers = append(outTickers, ft)
		}
		weights[ft] = 1
	}
	for t, v := range req.Weights {
		if ft := fix(t); ft != "" {
			weights[ft] = v
		}
	}
	if len(req.Tickers) == 0 && len(req.Weights) > 0 {
		// map order is random; keep the fetch order stable
		sort.Strings(outTickers)
	}
	return outTickers, weights
}

func (s *Service) record(ctx context.Context, source string, o *Outcome) {
	if s.runs == nil || source == "" {
		return
	}
	m := o.Result.Metrics
	err := s.runs.SaveRun(ctx, storage.Run{
		ID:           o.RunID,
		CreatedAt:    time.Now(),
		Source:       source,
		Crisis:       o.Crisis.Key,
		Weights:      finance.CanonicalWeights(o.Result.Weights),
		Cadence:      o.Cadence,
		TotalReturn:  m.TotalReturn,
		MaxDrawdown:  m.MaxDrawdown,
		RecoveryDays: m.TimeToRecoveryDays,
		Sharpe:       m.Sharpe,
	})
	if err != nil {
		s.logger.Warn("replay: save run failed", zap.String("run", o.RunID), zap.Error(err))
	}
}
