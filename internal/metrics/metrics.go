package metrics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"shorttrack/internal/models"
)

// Reasons a disclosed issuer is excluded from the ranked table.
const (
	ReasonUnresolved    = "unresolved"
	ReasonNoSnapshot    = "no_snapshot"
	ReasonStaleSnapshot = "stale_snapshot"
)

var hundred = decimal.NewFromInt(100)

// Input is the store state the engine computes over. The engine is pure:
// no I/O, no retries, deterministic output for a given input.
type Input struct {
	Disclosures []models.Disclosure
	Mappings    []models.InstrumentMapping
	Snapshots   []models.MarketSnapshot
	Previous    []models.AggregateState
}

type Options struct {
	// TopN caps both ranked tables.
	TopN int
	// MaxSnapshotAge is how many days a market snapshot may trail AsOf
	// before its ticker is excluded as stale.
	MaxSnapshotAge int
	AsOf           time.Time
}

// SecurityRow is one issuer in the ranked table: aggregate short interest
// across all disclosing holders joined with the issuer's market snapshot.
type SecurityRow struct {
	Ticker            string
	Issuer            string
	Aggregate         decimal.Decimal
	Rank              int
	HolderCount       int
	Price             decimal.Decimal
	SharesOutstanding int64
	SharesShort       decimal.Decimal
	ShortValue        decimal.Decimal
	DaysToCover       *decimal.Decimal
	DayChange         *decimal.Decimal
}

// HolderRow is one disclosed position in the top individual shorts table.
type HolderRow struct {
	Holder       string
	Issuer       string
	Ticker       string
	Position     decimal.Decimal
	PositionDate time.Time
}

// MissingRow lists a disclosed issuer excluded from the ranked table, with
// the reason, for the data-quality section of the report.
type MissingRow struct {
	ISIN      string
	Issuer    string
	Ticker    string
	Aggregate decimal.Decimal
	Reason    string
}

type Summary struct {
	AsOf       time.Time
	Securities []SecurityRow
	Holders    []HolderRow
	Missing    []MissingRow

	// States carries the aggregate per joined ticker (not truncated to
	// TopN) for persisting as the next run's day-change baseline.
	States []models.AggregateState
}

type issuerGroup struct {
	isin        string
	issuer      string
	aggregate   decimal.Decimal
	holderCount int
	disclosures []models.Disclosure
}

// Compute joins disclosures with mappings and market snapshots and derives
// the ranked summary. Issuers lacking a mapping or a fresh snapshot land in
// the Missing listing, never zero-filled rows.
func Compute(in Input, opts Options) Summary {
	summary := Summary{AsOf: opts.AsOf}

	mapping := make(map[string]string, len(in.Mappings))
	for _, m := range in.Mappings {
		mapping[m.ISIN] = m.Ticker
	}
	snapshots := make(map[string]models.MarketSnapshot, len(in.Snapshots))
	for _, s := range in.Snapshots {
		snapshots[s.Ticker] = s
	}
	previous := make(map[string]models.AggregateState, len(in.Previous))
	for _, p := range in.Previous {
		previous[p.Ticker] = p
	}

	groups := groupByISIN(in.Disclosures)
	staleBefore := opts.AsOf.AddDate(0, 0, -opts.MaxSnapshotAge)

	var rows []SecurityRow
	for _, g := range groups {
		ticker, ok := mapping[g.isin]
		if !ok {
			summary.Missing = append(summary.Missing, MissingRow{
				ISIN: g.isin, Issuer: g.issuer, Aggregate: g.aggregate, Reason: ReasonUnresolved,
			})
			continue
		}
		snapshot, ok := snapshots[ticker]
		if !ok {
			summary.Missing = append(summary.Missing, MissingRow{
				ISIN: g.isin, Issuer: g.issuer, Ticker: ticker, Aggregate: g.aggregate, Reason: ReasonNoSnapshot,
			})
			continue
		}
		if snapshot.SnapshotDate.Before(staleBefore) {
			summary.Missing = append(summary.Missing, MissingRow{
				ISIN: g.isin, Issuer: g.issuer, Ticker: ticker, Aggregate: g.aggregate, Reason: ReasonStaleSnapshot,
			})
			continue
		}

		rows = append(rows, deriveRow(g, ticker, snapshot, previous))
		for _, d := range g.disclosures {
			summary.Holders = append(summary.Holders, HolderRow{
				Holder:       d.Holder,
				Issuer:       d.Issuer,
				Ticker:       ticker,
				Position:     d.Position,
				PositionDate: d.PositionDate,
			})
		}
	}

	// Rank by aggregate short interest descending, ties broken by ticker
	// ascending so equal aggregates order identically across runs.
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Aggregate.Equal(rows[j].Aggregate) {
			return rows[i].Aggregate.GreaterThan(rows[j].Aggregate)
		}
		return rows[i].Ticker < rows[j].Ticker
	})
	for i := range rows {
		rows[i].Rank = i + 1
		summary.States = append(summary.States, models.AggregateState{
			Ticker:    rows[i].Ticker,
			Aggregate: rows[i].Aggregate,
			AsOf:      opts.AsOf,
			UpdatedAt: opts.AsOf,
		})
	}
	summary.Securities = truncate(rows, opts.TopN)

	sort.SliceStable(summary.Holders, func(i, j int) bool {
		a, b := summary.Holders[i], summary.Holders[j]
		if !a.Position.Equal(b.Position) {
			return a.Position.GreaterThan(b.Position)
		}
		if a.Ticker != b.Ticker {
			return a.Ticker < b.Ticker
		}
		return a.Holder < b.Holder
	})
	summary.Holders = truncate(summary.Holders, opts.TopN)

	sort.Slice(summary.Missing, func(i, j int) bool {
		return summary.Missing[i].ISIN < summary.Missing[j].ISIN
	})

	return summary
}

func deriveRow(g issuerGroup, ticker string, snapshot models.MarketSnapshot, previous map[string]models.AggregateState) SecurityRow {
	row := SecurityRow{
		Ticker:            ticker,
		Issuer:            g.issuer,
		Aggregate:         g.aggregate,
		HolderCount:       g.holderCount,
		Price:             snapshot.Price,
		SharesOutstanding: snapshot.SharesOutstanding,
	}

	sharesOut := decimal.NewFromInt(snapshot.SharesOutstanding)
	row.SharesShort = g.aggregate.Mul(sharesOut).Div(hundred)
	row.ShortValue = row.SharesShort.Mul(snapshot.Price)
	if snapshot.Volume > 0 {
		dtc := row.SharesShort.Div(decimal.NewFromInt(snapshot.Volume))
		row.DaysToCover = &dtc
	}
	if prev, ok := previous[ticker]; ok {
		change := g.aggregate.Sub(prev.Aggregate)
		row.DayChange = &change
	}
	return row
}

// groupByISIN sums positions per issuer across holders. Output is ordered by
// ISIN, and disclosures within a group by holder, for determinism.
func groupByISIN(disclosures []models.Disclosure) []issuerGroup {
	byISIN := make(map[string]*issuerGroup)
	for _, d := range disclosures {
		g, ok := byISIN[d.ISIN]
		if !ok {
			g = &issuerGroup{isin: d.ISIN, issuer: d.Issuer}
			byISIN[d.ISIN] = g
		}
		g.aggregate = g.aggregate.Add(d.Position)
		g.holderCount++
		g.disclosures = append(g.disclosures, d)
	}

	groups := make([]issuerGroup, 0, len(byISIN))
	for _, g := range byISIN {
		sort.Slice(g.disclosures, func(i, j int) bool {
			return g.disclosures[i].Holder < g.disclosures[j].Holder
		})
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].isin < groups[j].isin
	})
	return groups
}

func truncate[T any](rows []T, n int) []T {
	if n > 0 && len(rows) > n {
		return rows[:n]
	}
	return rows
}
