package replay

import (
	"context"

	"go.uber.org/zap"

	"crisisReplay/internal/crisis"
	"crisisReplay/internal/finance"
)

// SweepRow is one crisis and cadence of a sweep. Err is set when that
// combination could not be simulated.
type SweepRow struct {
	Crisis  crisis.Crisis
	Cadence finance.Cadence
	Outcome *Outcome
	Err     error
}

// SweepSize is the number of rows Sweep produces, for progress bars.
func (s *Service) SweepSize() int {
	return len(s.catalog.All()) * len(finance.Cadences)
}

// Sweep replays the same basket through every crisis in the catalog at every
// cadence. req.Crisis and req.Cadence are ignored. Each crisis is fetched once.
// progress, when set, is called after every row. A crisis that fails does not
// stop the sweep; only a cancelled context does.
func (s *Service) Sweep(ctx context.Context, req Request, progress func()) ([]SweepRow, error) {
	var rows []SweepRow
	tick := func() {
		if progress != nil {
			progress()
		}
	}

	for _, cr := range s.catalog.All() {
		p, err := s.prepare(ctx, cr, req)
		if err != nil && ctx.Err() != nil {
			return rows, ctx.Err()
		}
		for _, cadence := range finance.Cadences {
			row := SweepRow{Crisis: cr, Cadence: cadence, Err: err}
			if err == nil {
				row.Outcome, row.Err = s.simulate(ctx, p, cadence, req.Source)
			}
			if row.Err != nil {
				s.logger.Warn("replay: sweep row failed",
					zap.String("crisis", cr.Key), zap.String("cadence", string(cadence)), zap.Error(row.Err))
			}
			rows = append(rows, row)
			tick()
		}
	}
	return rows, nil
}

// Compare replays one basket through one crisis at every cadence, fetching
// prices once. Outcomes are returned in finance.Cadences order.
func (s *Service) Compare(ctx context.Context, req Request) ([]*Outcome, error) {
	cr, ok := s.catalog.Lookup(req.Crisis)
	if !ok {
		return nil, unknownCrisis(s.catalog, req.Crisis)
	}
	p, err := s.prepare(ctx, cr, req)
	if err != nil {
		return nil, err
	}
	out := make([]*Outcome, 0, len(finance.Cadences))
	for _, cadence := range finance.Cadences {
		o, err := s.simulate(ctx, p, cadence, req.Source)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// ComparisonCurves keys each outcome's result by its cadence for
// finance.MakeComparisonChart.
func ComparisonCurves(outcomes []*Outcome) map[string]*finance.SimulationResult {
	curves := make(map[string]*finance.SimulationResult, len(outcomes))
	for _, o := range outcomes {
		curves[string(o.Cadence)] = o.Result
	}
	return curves
}
