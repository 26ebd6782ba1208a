package status

import (
	"sort"

	"github.com/sais/sais/internal/domain/vaccination"
)

// sortRecordsNewestFirst matches the repositories' performed_at DESC,
// id DESC ordering.
func sortRecordsNewestFirst(records []*vaccination.Record) {
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.PerformedAt.Equal(b.PerformedAt) {
			return a.PerformedAt.After(b.PerformedAt)
		}
		return a.ID.String() > b.ID.String()
	})
}
