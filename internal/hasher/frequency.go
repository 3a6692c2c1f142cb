package hasher

import "sort"

// FrequencyMap maps a normalized token to the number of times it occurred. Every count is >= 1.
type FrequencyMap map[string]int

// TokenCount is a single FrequencyMap entry.
type TokenCount struct {
	Token string `json:"token"`
	Count int    `json:"count"`
}

// Merge adds every count in other to m. Keys present in both are summed.
func (m FrequencyMap) Merge(other FrequencyMap) FrequencyMap {
	for token, count := range other {
		m[token] += count
	}
	return m
}

// Total returns the sum of all counts.
func (m FrequencyMap) Total() int {
	total := 0
	for _, count := range m {
		total += count
	}
	return total
}

// Sorted returns the entries ordered by descending count, ties broken by token.
func (m FrequencyMap) Sorted() []TokenCount {
	entries := make([]TokenCount, 0, len(m))
	for token, count := range m {
		entries = append(entries, TokenCount{Token: token, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Token < entries[j].Token
	})
	return entries
}
