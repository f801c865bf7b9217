package importer

import (
	"fmt"
	"strings"

	"github.com/psycho-baller/audora/internal/types"
)

const fallbackSummary = "Conversation imported from mobile app."

type merged struct {
	S1Facts []string
	S2Facts []string
	Summary string
}

// aggregateChunks merges per-chunk facts and summaries in chunk order.
// Facts are deduplicated keeping first-occurrence order; summaries become a
// labeled composite when there is more than one chunk.
func aggregateChunks(results []types.ChunkResult) merged {
	var s1, s2, summaries []string
	for _, r := range results {
		s1 = append(s1, r.S1Facts...)
		s2 = append(s2, r.S2Facts...)
		summaries = append(summaries, r.Summary)
	}
	return merged{
		S1Facts: dedupe(s1),
		S2Facts: dedupe(s2),
		Summary: combineSummaries(summaries),
	}
}

func combineSummaries(summaries []string) string {
	switch {
	case len(summaries) == 0 || (len(summaries) == 1 && summaries[0] == ""):
		return fallbackSummary
	case len(summaries) == 1:
		return summaries[0]
	}
	parts := make([]string, len(summaries))
	for i, s := range summaries {
		parts[i] = fmt.Sprintf("Part %d: %s", i+1, s)
	}
	return "Combined conversation summary:\n\n" + strings.Join(parts, "\n\n")
}

// dedupe drops repeated entries, keeping the first occurrence in place.
func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
