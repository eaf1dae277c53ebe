package hotspot

import (
	"sort"

	"github.com/rotisserie/eris"
)

// RankKey selects the ordering used when picking the top hotspots.
type RankKey string

const (
	// ByFatalities orders clusters by summed fatalities, most dangerous first.
	ByFatalities RankKey = "fatalities"
	// ByCrashCount orders clusters by crash volume, busiest first.
	ByCrashCount RankKey = "crashes"
)

// ParseRankKey converts a user-supplied string into a RankKey.
func ParseRankKey(s string) (RankKey, error) {
	switch RankKey(s) {
	case ByFatalities, ByCrashCount:
		return RankKey(s), nil
	default:
		return "", eris.Errorf("hotspot: unknown rank key %q", s)
	}
}

// RankedSummary is a Summary tagged with its 1-based display rank. The
// rank is presentation-only: it reflects the position in the chosen
// ordering and is recomputed on every Rank call, never carried across
// runs and never to be confused with the cluster id.
type RankedSummary struct {
	Summary
	DisplayRank int `json:"display_rank"`
}

// Rank returns up to topN summaries ordered descending by key, ties
// broken by ascending cluster id so equal-key runs produce identical
// output. Fewer than topN summaries is not an error; all are returned.
func Rank(summaries []Summary, key RankKey, topN int) []RankedSummary {
	ordered := append([]Summary(nil), summaries...)
	sort.Slice(ordered, func(i, j int) bool {
		ki, kj := rankValue(ordered[i], key), rankValue(ordered[j], key)
		if ki != kj {
			return ki > kj
		}
		return ordered[i].ClusterID < ordered[j].ClusterID
	})

	if topN < len(ordered) {
		ordered = ordered[:topN]
	}

	ranked := make([]RankedSummary, len(ordered))
	for i, s := range ordered {
		ranked[i] = RankedSummary{Summary: s, DisplayRank: i + 1}
	}
	return ranked
}

func rankValue(s Summary, key RankKey) int {
	if key == ByCrashCount {
		return s.CrashCount
	}
	return s.FatalitySum
}
