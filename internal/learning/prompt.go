package learning

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/mentat/internal/state"
)

// BasePrompt seeds the live prompt at init. Reflections and adopted
// patterns grow it from here; it is never rewritten wholesale.
const BasePrompt = `# Operating Prompt

You are an automated coding agent. Complete the assigned task and verify
your work before finishing. The rules and notes below were learned from
earlier attempts; follow the rules and avoid repeating noted failures.
`

// noteErrorLimit caps how much error text a prompt note carries. The full
// text stays in the history document.
const noteErrorLimit = 160

// noteLine renders the one-line prompt note for a reflection.
func noteLine(r *state.Reflection) string {
	if !r.Failed() {
		return fmt.Sprintf("- Note: %q succeeded\n", r.Context)
	}
	if r.Error == "" {
		return fmt.Sprintf("- Note: %q failed\n", r.Context)
	}
	return fmt.Sprintf("- Note: %q failed: %s\n", r.Context, flatten(r.Error, noteErrorLimit))
}

// ruleLine renders the prompt line for an adopted pattern.
func ruleLine(text string) string {
	return fmt.Sprintf("- Rule: %s\n", text)
}

// flatten collapses text onto one line and truncates it to limit runes.
func flatten(text string, limit int) string {
	flat := strings.Join(strings.Fields(text), " ")
	runes := []rune(flat)
	if len(runes) <= limit {
		return flat
	}
	return string(runes[:limit]) + "..."
}

// archiveVersion appends content as a new prompt version unless identical
// content has been archived before. Versions are keyed by content hash, so
// re-archiving reverted content would overwrite the earlier version's map
// entry and lose it from the history; the original entry wins instead.
func (s *Service) archiveVersion(tracking *state.Tracking, content string, patternsCount int) bool {
	hash := state.PromptHash(content)
	if _, exists := tracking.PromptVersions[hash]; exists {
		return false
	}

	sequence := 1
	if latest := tracking.LatestVersion(); latest != nil {
		sequence = latest.Sequence + 1
	}
	tracking.PromptVersions[hash] = state.PromptVersion{
		Content:       content,
		Created:       s.now().UTC(),
		PatternsCount: patternsCount,
		Sequence:      sequence,
	}
	s.metrics.VersionsArchivedTotal.Inc()
	return true
}
