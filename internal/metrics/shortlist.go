package metrics

import (
	"sort"

	"shorttrack/internal/models"
)

// ShortlistISINs picks the identifiers worth resolving and quoting: the
// issuers behind the top-N aggregate shorts plus those behind the top-N
// individual positions. Market data is only fetched for this shortlist.
func ShortlistISINs(disclosures []models.Disclosure, topN int) []string {
	groups := groupByISIN(disclosures)

	byAggregate := make([]issuerGroup, len(groups))
	copy(byAggregate, groups)
	sort.SliceStable(byAggregate, func(i, j int) bool {
		if !byAggregate[i].aggregate.Equal(byAggregate[j].aggregate) {
			return byAggregate[i].aggregate.GreaterThan(byAggregate[j].aggregate)
		}
		return byAggregate[i].isin < byAggregate[j].isin
	})

	individual := make([]models.Disclosure, len(disclosures))
	copy(individual, disclosures)
	sort.SliceStable(individual, func(i, j int) bool {
		if !individual[i].Position.Equal(individual[j].Position) {
			return individual[i].Position.GreaterThan(individual[j].Position)
		}
		if individual[i].ISIN != individual[j].ISIN {
			return individual[i].ISIN < individual[j].ISIN
		}
		return individual[i].Holder < individual[j].Holder
	})

	seen := make(map[string]bool)
	for _, g := range truncate(byAggregate, topN) {
		seen[g.isin] = true
	}
	for _, d := range truncate(individual, topN) {
		seen[d.ISIN] = true
	}

	isins := make([]string, 0, len(seen))
	for isin := range seen {
		isins = append(isins, isin)
	}
	sort.Strings(isins)
	return isins
}
