package scanning

import (
	"strings"
)

// parseTranscript splits a model's transcription into receipt lines
func parseTranscript(text string) ([]string, error) {
	text = strings.TrimSpace(text)

	// Remove markdown code blocks if present
	text = strings.TrimPrefix(text, "```text")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	return cleanLines(strings.Split(text, "\n"))
}

// cleanLines trims every line and drops empty ones, keeping order
func cleanLines(raw []string) ([]string, error) {
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(strings.TrimRight(line, "\r"))
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return nil, ErrNoLines
	}
	return lines, nil
}
