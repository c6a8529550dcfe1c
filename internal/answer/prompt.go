package answer

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/repoqa/repoqa/pkg/types"
)

var whitespaceRE = regexp.MustCompile(`\s+`)

// FormatQuestion collapses runs of whitespace in a user question.
func FormatQuestion(question string) string {
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(question, " "))
}

// FormatPassages renders retrieved passages as a numbered list of
// "basename: text" entries for prompt inclusion.
func FormatPassages(results []types.SearchResult) string {
	lines := make([]string, len(results))
	for i, r := range results {
		lines[i] = fmt.Sprintf("%d. %s: %s", i+1, filepath.Base(r.Passage.SourcePath), r.Passage.Text)
	}
	return strings.Join(lines, "\n")
}

// formatFileTypeCounts renders counts as "ext: n" pairs in sorted extension
// order so the prompt is stable across runs.
func formatFileTypeCounts(counts map[string]int) string {
	exts := make([]string, 0, len(counts))
	for ext := range counts {
		exts = append(exts, ext)
	}
	sort.Strings(exts)

	pairs := make([]string, len(exts))
	for i, ext := range exts {
		pairs[i] = fmt.Sprintf("%s: %d", ext, counts[ext])
	}
	return strings.Join(pairs, ", ")
}

// buildPrompt assembles the question prompt: repository identity and file
// statistics, running conversation, the retrieved passages, and the
// answering instructions.
func (a *Asker) buildPrompt(question string, results []types.SearchResult, conversationHistory string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "This question is about the repository '%s'", a.repoName)
	if a.repoURL != "" {
		fmt.Fprintf(&sb, " available at %s", a.repoURL)
	}
	sb.WriteString(".\n")

	if len(a.stats.FileTypeCounts) > 0 {
		fmt.Fprintf(&sb, "File counts by type: %s\n", formatFileTypeCounts(a.stats.FileTypeCounts))
	}
	if len(a.stats.FileNames) > 0 {
		fmt.Fprintf(&sb, "File names: %s\n", strings.Join(a.stats.FileNames, ", "))
	}
	sb.WriteString("\n")

	if conversationHistory != "" {
		sb.WriteString("Conversation so far:\n")
		sb.WriteString(conversationHistory)
		sb.WriteString("\n")
	}

	sb.WriteString("The most relevant documents are:\n\n")
	sb.WriteString(FormatPassages(results))
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "Question: %s\n", question)
	sb.WriteString(`Instructions:
1. Answer based on the context and documents above.
2. Focus on the repository and its code.
3. Consider:
   a. Purpose and features - describe them.
   b. Functions and code - provide details and samples.
   c. Setup and usage - give instructions.
4. If unsure, say "I am not sure".
Answer:`)
	return sb.String()
}
