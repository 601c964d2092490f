package activity

import "sort"

// Merge folds incoming activities into the existing store contents and
// returns the updated sequence. Steps, in order:
//
//  1. Concatenate existing then incoming.
//  2. Deduplicate by ID, keeping the first occurrence in concatenation order.
//     Existing entries win over incoming ones with the same id.
//  3. Stable sort ascending by timestamp, ties keep relative order.
//
// Merge is idempotent (merging the same batch twice equals merging it once)
// and splitting a batch into two merges yields the same final store as one
// merge, which is what lets crashed cycles simply re-run.
func Merge(existing, incoming []Activity) []Activity {
	merged := make([]Activity, 0, len(existing)+len(incoming))
	seen := make(map[string]struct{}, len(existing)+len(incoming))

	for _, lists := range [][]Activity{existing, incoming} {
		for _, a := range lists {
			if _, dup := seen[a.ID]; dup {
				continue
			}
			seen[a.ID] = struct{}{}
			merged = append(merged, a)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].TimestampMS < merged[j].TimestampMS
	})

	return merged
}
