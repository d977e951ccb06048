package snapshots

import "github.com/Jeffrog22/Lista-de-Chamada-Web/internal/core"

// Index maps lookup keys to the latest snapshot seen for them.
type Index map[string]core.Snapshot

// LatestByKey keeps, for every lookup key, the snapshot with the greatest
// SavedAt. On equal SavedAt the snapshot appended later wins. An empty month
// keeps every snapshot.
func LatestByKey(snaps []core.Snapshot, month string) Index {
	idx := make(Index)
	for _, s := range snaps {
		if month != "" && s.Month != month {
			continue
		}
		for _, key := range LookupKeys(s) {
			if cur, ok := idx[key]; ok && cur.SavedAt > s.SavedAt {
				continue
			}
			idx[key] = s
		}
	}
	return idx
}

// Resolve probes the class keys in precedence order and returns the first
// hit.
func (idx Index) Resolve(c core.ClassRecord) (core.Snapshot, bool) {
	for _, key := range ClassKeys(c) {
		if s, ok := idx[key]; ok {
			return s, true
		}
	}
	return core.Snapshot{}, false
}
