package triage

import (
	"regexp"
	"strings"
)

// levelPattern matches the labelled verdict the system prompt asks for.
// "non-urgent" must come before "urgent" in the alternation or the prefix
// would shadow it.
var levelPattern = regexp.MustCompile(`(?i)triage\s*level\s*[:\-]?\s*(non-urgent|critical|urgent|mild)`)

var advicePattern = regexp.MustCompile(`(?i)^\s*advice\s*[:\-]\s*(.*)$`)

var bulletPrefixes = []string{"-", "*", "•"}

// ExtractLevel maps a labelled triage verdict in the reply text to its
// semantic level. Absence of a marker means the assistant is still gathering
// information, not an error.
func ExtractLevel(text string) Level {
	m := levelPattern.FindStringSubmatch(text)
	if m == nil {
		return LevelUnknown
	}
	switch strings.ToLower(m[1]) {
	case "critical":
		return LevelRed
	case "urgent":
		return LevelOrange
	case "non-urgent":
		return LevelGreen
	case "mild":
		return LevelYellow
	}
	return LevelUnknown
}

// ExtractAdvice collects the advice block from the reply text: an "Advice:"
// heading followed by bullet lines. Bullet markers are stripped and the lines
// joined with newlines. Inline text on the heading line is kept as the first
// line. Returns "" when the reply carries no advice.
func ExtractAdvice(text string) string {
	lines := strings.Split(text, "\n")
	start := -1
	var out []string
	for i, line := range lines {
		m := advicePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		start = i
		if inline := strings.TrimSpace(m[1]); inline != "" {
			out = append(out, inline)
		}
		break
	}
	if start < 0 {
		return ""
	}
	for _, line := range lines[start+1:] {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		stripped, ok := stripBullet(trimmed)
		if !ok {
			break
		}
		out = append(out, stripped)
	}
	return strings.Join(out, "\n")
}

func stripBullet(line string) (string, bool) {
	for _, p := range bulletPrefixes {
		if strings.HasPrefix(line, p) {
			return strings.TrimSpace(strings.TrimPrefix(line, p)), true
		}
	}
	return "", false
}
