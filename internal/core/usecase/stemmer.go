package usecase

import "strings"

// stemToken applies a fixed, deterministic suffix-stripping subset of the
// Porter rules. The exact algorithm matters less than determinism: the
// stemmed query feeds the cache key, so the same input must always stem
// to the same output.
func stemToken(token string) string {
	if len(token) <= 3 {
		return token
	}

	token = strings.TrimSuffix(token, "'s")

	switch {
	case strings.HasSuffix(token, "sses"):
		token = strings.TrimSuffix(token, "es")
	case strings.HasSuffix(token, "ies"):
		token = strings.TrimSuffix(token, "ies") + "y"
	case strings.HasSuffix(token, "ss"), strings.HasSuffix(token, "us"):
		// keep
	case strings.HasSuffix(token, "s"):
		token = strings.TrimSuffix(token, "s")
	}

	for _, suffix := range []string{"ingly", "edly", "ing", "ed", "ly"} {
		if strings.HasSuffix(token, suffix) && len(token)-len(suffix) >= 3 {
			token = strings.TrimSuffix(token, suffix)
			break
		}
	}

	if strings.HasSuffix(token, "ation") && len(token) > 6 {
		token = strings.TrimSuffix(token, "ation") + "ate"
	}
	return token
}

func stemText(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return text
	}
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		lower := strings.ToLower(field)
		if isPlainWord(lower) {
			out = append(out, stemToken(lower))
			continue
		}
		// Quoted phrases, identifiers and punctuation-bearing tokens pass
		// through untouched so exact-match markers survive processing.
		out = append(out, field)
	}
	return strings.Join(out, " ")
}

func isPlainWord(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return s != ""
}
