package classifications

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var lower = cases.Lower(language.French)

// Key folds a free-text label into a stable identifier: accents removed,
// lower case, runs of other characters collapsed to a single dash.
// "Fournisseur  Clé" and "fournisseur-cle" share the key "fournisseur-cle".
func Key(label string) string {
	stripped, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), label)
	if err != nil {
		stripped = label
	}
	stripped = lower.String(stripped)

	var b strings.Builder
	dash := false
	for _, r := range stripped {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		dash = true
	}
	return b.String()
}
