// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package identity

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"

	"github.com/pdiddy/talent-engine/internal/evidence"
)

// Transformer chains are stateful, so each caller takes one from the pool.
var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKD,
			runes.Remove(runes.In(unicode.Mn)),
			runes.Remove(runes.In(unicode.Cf)),
			width.Fold,
			cases.Fold(),
			norm.NFC,
		)
	},
}

// NormalizeName folds a person or institution name into the form used by
// the name composite key: accents stripped, case folded, punctuation
// dropped, whitespace collapsed. "José  O'Brien-Smith" becomes
// "jose obrien smith".
func NormalizeName(s string) string {
	s = strings.TrimSpace(strings.ToValidUTF8(s, ""))
	if s == "" {
		return ""
	}

	tr := chainPool.Get().(transform.Transformer)
	folded, _, err := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		folded = strings.ToLower(s)
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '\'' || r == '’' || r == '.':
			// dropped without a separator so initials and elisions collapse
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// NormalizeHandle lowercases a code-host login and strips a leading "@".
func NormalizeHandle(s string) string { return evidence.NormalizeHandle(s) }
