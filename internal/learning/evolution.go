package learning

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fyrsmithlabs/mentat/internal/state"
)

// Versions returns the archived prompt history in creation order, each
// annotated with its delta against the immediately preceding version.
func (s *Service) Versions() ([]VersionInfo, error) {
	tracking, err := s.store.LoadTracking()
	if err != nil {
		return nil, err
	}

	ordered := tracking.VersionsInOrder()
	infos := make([]VersionInfo, 0, len(ordered))
	var prev *state.PromptVersion
	for i := range ordered {
		v := &ordered[i]
		info := VersionInfo{
			Sequence:      v.Sequence,
			Hash:          state.PromptHash(v.Content),
			Created:       v.Created,
			PatternsCount: v.PatternsCount,
		}
		if prev != nil {
			info.PatternsDelta = v.PatternsCount - prev.PatternsCount
			info.LinesAdded, info.LinesRemoved = diffLines(prev.Content, v.Content)
		}
		infos = append(infos, info)
		prev = v
	}
	return infos, nil
}

// RenderEvolution writes the human-readable version history: one block
// per version with its creation time, pattern count, and the changes
// since the previous version, then the total count.
func (s *Service) RenderEvolution(w io.Writer) error {
	infos, err := s.Versions()
	if err != nil {
		return err
	}

	for i := range infos {
		info := &infos[i]
		fmt.Fprintf(w, "Version %d:\n", info.Sequence)
		fmt.Fprintf(w, "  Created: %s\n", info.Created.Format(time.RFC3339))
		fmt.Fprintf(w, "  Patterns: %d\n", info.PatternsCount)
		if i > 0 {
			fmt.Fprintf(w, "  Changes from previous: %s\n", describeDelta(info))
		}
	}
	fmt.Fprintf(w, "Total versions: %d\n", len(infos))
	return nil
}

func describeDelta(info *VersionInfo) string {
	lines := fmt.Sprintf("+%d/-%d lines", info.LinesAdded, info.LinesRemoved)
	if info.PatternsDelta != 0 {
		return fmt.Sprintf("%+d patterns, %s", info.PatternsDelta, lines)
	}
	return lines
}

// diffLines counts lines added and removed between two contents, treating
// each as an unordered multiset of lines.
func diffLines(before, after string) (added, removed int) {
	counts := map[string]int{}
	for _, line := range strings.Split(before, "\n") {
		counts[line]++
	}
	for _, line := range strings.Split(after, "\n") {
		counts[line]--
	}
	for _, n := range counts {
		if n > 0 {
			removed += n
		} else {
			added -= n
		}
	}
	return added, removed
}
