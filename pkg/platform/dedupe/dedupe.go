// Package dedupe provides order-preserving de-duplication helpers used when
// batching values for lookups and fan-out (distinct type keys in a sync batch,
// distinct person identifiers in event payloads).
package dedupe

// Values returns vs with duplicates removed, preserving first-seen order.
func Values[T comparable](vs []T) []T {
	if len(vs) < 2 {
		return vs
	}
	seen := make(map[T]struct{}, len(vs))
	out := vs[:0:0]
	for _, v := range vs {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
