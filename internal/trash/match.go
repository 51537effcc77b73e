package trash

import (
	"regexp"
	"strings"
)

// Matcher matches workspace-relative paths against a user search query.
// The same matcher drives dashboard filtering, restore patterns, and
// trashed-entry addressing, so a query behaves identically everywhere.
type Matcher struct {
	re  *regexp.Regexp
	sub string // lowercased substring, used when re is nil
	any bool
}

// Matches reports whether the matcher accepts path.
func (m Matcher) Matches(path string) bool {
	switch {
	case m.any:
		return true
	case m.re != nil:
		return m.re.MatchString(path)
	default:
		return strings.Contains(strings.ToLower(path), m.sub)
	}
}

// BuildMatcher interprets a user query. An empty query matches
// everything. "re:PATTERN" and "/PATTERN/" force regex mode, '*' or '?'
// turn the query into a shell-style wildcard, and a query carrying regex
// metacharacters is tried as a regex. Anything else, including a pattern
// that fails to compile, falls back to case-insensitive substring match.
func BuildMatcher(query string) Matcher {
	q := strings.TrimSpace(query)
	if q == "" {
		return Matcher{any: true}
	}

	if strings.HasPrefix(q, "re:") {
		if re := compileFold(strings.TrimPrefix(q, "re:")); re != nil {
			return Matcher{re: re}
		}
		return Matcher{sub: strings.ToLower(q)}
	}

	if len(q) >= 2 && strings.HasPrefix(q, "/") && strings.HasSuffix(q, "/") {
		if re := compileFold(q[1 : len(q)-1]); re != nil {
			return Matcher{re: re}
		}
		return Matcher{sub: strings.ToLower(q)}
	}

	if strings.ContainsAny(q, "*?") {
		if re := compileFold(globToRegex(q)); re != nil {
			return Matcher{re: re}
		}
		return Matcher{sub: strings.ToLower(q)}
	}

	if looksLikeRegex(q) {
		if re := compileFold(q); re != nil {
			return Matcher{re: re}
		}
	}
	return Matcher{sub: strings.ToLower(q)}
}

// compileFold compiles pattern case-insensitively, returning nil when it
// does not parse.
func compileFold(pattern string) *regexp.Regexp {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil
	}
	return re
}

// globToRegex rewrites a shell-style wildcard into an anchored regular
// expression: '*' spans any run of characters, '?' exactly one.
func globToRegex(glob string) string {
	var out strings.Builder
	out.WriteString("^")
	for _, ch := range glob {
		switch ch {
		case '*':
			out.WriteString(".*")
		case '?':
			out.WriteString(".")
		default:
			out.WriteString(regexp.QuoteMeta(string(ch)))
		}
	}
	out.WriteString("$")
	return out.String()
}

// looksLikeRegex guesses whether a query was meant as a regular
// expression from the metacharacters it carries.
func looksLikeRegex(q string) bool {
	return strings.ContainsAny(q, `[]()|+^${}\.`)
}

// NormalizeQuery canonicalizes a user-typed path query: trims space,
// flips backslashes to forward slashes, and strips leading "./" runs and
// surrounding slashes.
func NormalizeQuery(input string) string {
	q := strings.TrimSpace(input)
	q = strings.ReplaceAll(q, `\`, "/")
	for strings.HasPrefix(q, "./") {
		q = q[2:]
	}
	return strings.Trim(q, "/")
}
