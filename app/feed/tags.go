package feed

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeTags turns raw category labels into tag names. A label containing
// commas or slashes yields one tag per segment. Order is kept; duplicates are not removed.
func NormalizeTags(tags []RawTag) []string {
	// A Caser is stateful; one per call keeps concurrent feeds apart.
	caser := cases.Lower(language.Und)

	var names []string
	for _, tag := range tags {
		term := tag.Label
		if term == "" {
			term = tag.Term
		}

		segments := strings.FieldsFunc(strings.TrimSpace(term), func(r rune) bool {
			return r == ',' || r == '/'
		})
		for _, segment := range segments {
			name := caser.String(segment)
			for strings.Contains(name, "  ") {
				name = strings.ReplaceAll(name, "  ", " ")
			}
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			names = append(names, name)
		}
	}
	return names
}
