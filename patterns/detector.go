package patterns

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"tradememory/journal"
)

// TradeSource is the slice of the trade-history store the detector reads.
type TradeSource interface {
	QueryTrades(journal.Query) ([]journal.TradeRecord, error)
}

// Store persists discovered patterns keyed by ID.
type Store interface {
	Put(Pattern) error
}

// snapshotLimit bounds how much history one discovery run loads.
const snapshotLimit = 10000

// Detector runs the five statistical scans over a trade-history snapshot.
// Detection is a pure function of the snapshot: the same trades always
// produce the same pattern set with the same IDs.
type Detector struct {
	baseline   float64 // baseline equity for pnl-percentage
	diagnostic string  // strategy scanned by the domain diagnostic
	log        zerolog.Logger
	now        func() time.Time
}

// NewDetector builds a detector. baselineEquity anchors pnl-percentage
// figures; diagnosticStrategy names the strategy given the deep diagnostic
// scan (pass "" for the MeanReversion default).
func NewDetector(baselineEquity float64, diagnosticStrategy string, logger zerolog.Logger) *Detector {
	if baselineEquity <= 0 {
		baselineEquity = 10000.0
	}
	if diagnosticStrategy == "" {
		diagnosticStrategy = "MeanReversion"
	}
	return &Detector{
		baseline:   baselineEquity,
		diagnostic: diagnosticStrategy,
		log:        logger,
		now:        time.Now,
	}
}

// Discover loads a history snapshot, runs all detectors and persists the
// results. Storage replaces by pattern ID, so re-runs on unchanged data
// never grow the stored set.
func (d *Detector) Discover(src TradeSource, store Store) ([]Pattern, error) {
	trades, err := src.QueryTrades(journal.Query{Limit: snapshotLimit})
	if err != nil {
		return nil, fmt.Errorf("load trade snapshot: %w", err)
	}

	found := d.Detect(trades)
	for _, p := range found {
		if err := store.Put(p); err != nil {
			return nil, fmt.Errorf("store pattern %s: %w", p.ID, err)
		}
	}

	d.log.Info().Int("trades", len(trades)).Int("patterns", len(found)).
		Msg("pattern discovery complete")
	return found, nil
}

// Detect runs all five detectors over the snapshot. Open trades are skipped;
// an empty history yields an empty slice, never an error.
func (d *Detector) Detect(trades []journal.TradeRecord) []Pattern {
	closed := make([]journal.TradeRecord, 0, len(trades))
	for _, t := range trades {
		if t.Closed() {
			closed = append(closed, t)
		}
	}
	if len(closed) == 0 {
		return []Pattern{}
	}

	dateRange := dateRangeOf(closed)
	now := d.now().UTC()

	var out []Pattern
	out = append(out, d.detectStrategyRanking(closed, dateRange, now)...)
	out = append(out, d.detectDirectionBias(closed, dateRange, now)...)
	out = append(out, d.detectSymbolFit(closed, dateRange, now)...)
	out = append(out, d.detectDiagnostic(closed, dateRange, now)...)
	out = append(out, d.detectTopVariants(closed, dateRange, now)...)
	return out
}

// perf accumulates aggregate performance for one group of trades.
type perf struct {
	n           int
	totalPnL    float64
	wins        int
	losses      int
	grossWins   float64
	grossLosses float64
}

func (p *perf) add(pnl float64) {
	p.n++
	p.totalPnL += pnl
	switch {
	case pnl > 0:
		p.wins++
		p.grossWins += pnl
	case pnl < 0:
		p.losses++
		p.grossLosses += -pnl
	}
}

// winRate in percent.
func (p perf) winRate() float64 {
	if p.n == 0 {
		return 0
	}
	return round1(float64(p.wins) * 100.0 / float64(p.n))
}

// profitFactor is gross profit over gross loss, saturated at 999 when the
// group has no losses.
func (p perf) profitFactor() float64 {
	if p.grossLosses <= 0 {
		return 999.0
	}
	return round2(p.grossWins / p.grossLosses)
}

func (p perf) avgWin() float64 {
	if p.wins == 0 {
		return 0
	}
	return round2(p.grossWins / float64(p.wins))
}

func (p perf) avgLoss() float64 {
	if p.losses == 0 {
		return 0
	}
	return round2(p.grossLosses / float64(p.losses))
}

// rewardRisk is average win over average loss.
func (p perf) rewardRisk() float64 {
	al := p.avgLoss()
	if al <= 0 {
		return 0
	}
	return round2(p.avgWin() / al)
}

// pnlPct expresses a pnl total as percentage points of the baseline equity.
func (d *Detector) pnlPct(totalPnL float64) float64 {
	return round1(totalPnL / (d.baseline / 100.0))
}

func dateRangeOf(trades []journal.TradeRecord) string {
	min, max := trades[0].Timestamp, trades[0].Timestamp
	for _, t := range trades[1:] {
		if t.Timestamp.Before(min) {
			min = t.Timestamp
		}
		if t.Timestamp.After(max) {
			max = t.Timestamp
		}
	}
	return min.UTC().Format("2006-01-02") + " to " + max.UTC().Format("2006-01-02")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
