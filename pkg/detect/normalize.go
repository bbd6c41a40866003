package detect

import "golang.org/x/text/unicode/norm"

// NormalizeText applies NFKC normalization so that fullwidth and other
// compatibility forms of digits and letters match the lexical tables.
// Scammers paste numbers and URLs from arbitrary sources; without folding,
// "９８７６５４３２１０" would slip past every digit pattern.
func NormalizeText(text string) string {
	if norm.NFKC.IsNormalString(text) {
		return text
	}
	return norm.NFKC.String(text)
}
