package store

import "github.com/nao1215/removalscan/internal/model"

// Merge appends the records of incoming whose identity key is not present
// in existing or earlier in incoming. It returns the merged list and the
// number of records accepted. Neither input is modified.
func Merge(existing, incoming []model.Record) ([]model.Record, int) {
	seen := make(map[model.IdentityKey]struct{}, len(existing)+len(incoming))
	merged := make([]model.Record, 0, len(existing)+len(incoming))

	for _, r := range existing {
		seen[r.Key()] = struct{}{}
		merged = append(merged, r)
	}

	added := 0
	for _, r := range incoming {
		key := r.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, r)
		added++
	}
	return merged, added
}
