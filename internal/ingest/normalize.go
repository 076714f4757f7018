package ingest

import (
	"strings"

	"shorttrack/internal/client/fca"
)

// dedupeRows collapses duplicate (isin, holder) rows, keeping the row with
// the larger position. The published sheet occasionally repeats a holder;
// assuming the max disclosure is correct matches how the feed behaves.
func dedupeRows(rows []fca.Row) ([]fca.Row, int) {
	type key struct {
		isin   string
		holder string
	}

	index := make(map[key]int, len(rows))
	out := make([]fca.Row, 0, len(rows))
	duplicates := 0
	for _, row := range rows {
		row.Holder = strings.TrimSpace(row.Holder)
		row.Issuer = strings.TrimSpace(row.Issuer)
		row.ISIN = strings.ToUpper(strings.TrimSpace(row.ISIN))

		k := key{isin: row.ISIN, holder: row.Holder}
		if i, ok := index[k]; ok {
			duplicates++
			if row.Position.GreaterThan(out[i].Position) {
				out[i] = row
			}
			continue
		}
		index[k] = len(out)
		out = append(out, row)
	}
	return out, duplicates
}
