package llm

import "strings"

// extractJSON pulls a JSON document out of a reply that may wrap it in a
// markdown fence or surround it with prose. It returns s unchanged when
// nothing that looks like JSON is found.
func extractJSON(s string) string {
	for _, fence := range []string{"```json", "```"} {
		if body, ok := fenced(s, fence); ok {
			return body
		}
	}

	for i := 0; i < len(s); i++ {
		if s[i] != '{' && s[i] != '[' {
			continue
		}
		if end := matchingBracket(s, i); end != -1 {
			return s[i : end+1]
		}
	}

	return s
}

func fenced(s, open string) (string, bool) {
	idx := strings.Index(s, open)
	if idx == -1 {
		return "", false
	}
	rest := strings.TrimLeft(s[idx+len(open):], "\r\n")
	end := strings.Index(rest, "```")
	if end == -1 {
		return "", false
	}
	return strings.TrimRight(rest[:end], "\r\n"), true
}

// matchingBracket returns the index closing the bracket at start, skipping
// brackets inside strings, or -1.
func matchingBracket(s string, start int) int {
	depth := 0
	inString := false
	for j := start; j < len(s); j++ {
		c := s[j]
		if inString {
			switch c {
			case '\\':
				j++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}
