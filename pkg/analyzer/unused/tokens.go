package unused

import (
	"regexp"

	"github.com/cespare/xxhash/v2"
)

var identTokenRe = regexp.MustCompile(`[A-Za-z_$][A-Za-z0-9_$]*`)

// tokenSet interns every identifier-shaped token in the raw source.
// Tokens are stored as xxhash digests so a large workspace holds one
// uint64 per distinct token instead of the string.
func tokenSet(content string) map[uint64]struct{} {
	set := make(map[uint64]struct{})
	for _, tok := range identTokenRe.FindAllString(content, -1) {
		set[xxhash.Sum64String(tok)] = struct{}{}
	}
	return set
}

func hashContent(content string) uint64 {
	return xxhash.Sum64String(content)
}

// tokenCounts maps an interned token to the number of files containing
// it at least once.
type tokenCounts map[uint64]int

func countTokens(scope []*ParsedFacts) tokenCounts {
	counts := make(tokenCounts, 1024)
	for _, f := range scope {
		for tok := range f.Tokens {
			counts[tok]++
		}
	}
	return counts
}

// appearsBeyondDeclaring reports whether an exported symbol's name shows
// up in the scope outside its declaring file. The declaring file always
// contributes one count, so anything above one means some other file
// mentions the token. A single-file scope counts as a mention too, so a
// one-file workspace never flags its own exports.
func appearsBeyondDeclaring(counts tokenCounts, scopeSize int, symbol string) bool {
	n := counts[xxhash.Sum64String(symbol)]
	if n > 1 {
		return true
	}
	return n == 1 && scopeSize == 1
}
