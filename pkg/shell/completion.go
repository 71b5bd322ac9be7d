package shell

import "strings"

// Vocabulary is the set of words offered by tab completion.
var Vocabulary = []string{"set ", "del ", "get ", "help", "quit", "exit"}

// metricCommands take a metric name as their second word.
var metricCommands = []string{"set ", "del ", "get "}

// Complete completes the word in front of pos. The first word is completed
// against Vocabulary and the metric name after set, del or get against
// names. With one candidate the word is replaced by it; with several it is
// extended to their longest common prefix. candidates lists every match.
func Complete(line string, pos int, names []string) (newLine string, newPos int, candidates []string) {
	head := line[:pos]
	lead := ""
	words := Vocabulary
	for _, cmd := range metricCommands {
		if rest, ok := strings.CutPrefix(head, cmd); ok && isName(rest) {
			lead, head, words = cmd, rest, names
			break
		}
	}

	for _, word := range words {
		if strings.HasPrefix(word, head) {
			candidates = append(candidates, word)
		}
	}

	switch len(candidates) {
	case 0:
		return line, pos, nil
	case 1:
		return lead + candidates[0] + line[pos:], len(lead) + len(candidates[0]), candidates
	}

	common := candidates[0]
	for _, c := range candidates[1:] {
		common = commonPrefix(common, c)
	}
	return lead + common + line[pos:], len(lead) + len(common), candidates
}

// isName reports whether s could be the start of a metric name.
func isName(s string) bool {
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return true
}

func commonPrefix(a, b string) string {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[:i]
		}
	}
	return a[:n]
}
