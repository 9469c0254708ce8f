package fixagent

import "strings"

// extractCrateNameFromError and its siblings duplicate the quoted-name and
// path-scanning heuristics in package diagnostics rather than import them,
// keeping diagnostics and fixagent independently usable without a shared
// internal helper package.

func extractCrateNameFromError(message string) string {
	name, _ := extractQuotedName(message)
	return name
}

func extractItemNameFromError(message string) string {
	name, _ := extractQuotedName(message)
	return name
}

func extractFileFromError(message string) string {
	for _, word := range strings.Fields(message) {
		cleaned := strings.Trim(word, ":,.()")
		if strings.HasSuffix(cleaned, ".rs") ||
			strings.HasSuffix(cleaned, ".go") ||
			strings.HasSuffix(cleaned, ".ts") ||
			strings.HasSuffix(cleaned, ".tsx") {
			return cleaned
		}
	}
	return ""
}

func extractQuotedName(message string) (string, bool) {
	if start := strings.Index(message, "`"); start >= 0 {
		rest := message[start+1:]
		if end := strings.Index(rest, "`"); end >= 0 {
			name := rest[:end]
			if name != "" && !strings.Contains(name, " ") {
				return name, true
			}
		}
	}

	if start := strings.Index(message, "'"); start >= 0 {
		rest := message[start+1:]
		if end := strings.Index(rest, "'"); end >= 0 {
			name := rest[:end]
			if name != "" && !strings.Contains(name, " ") {
				return name, true
			}
		}
	}

	return "", false
}
