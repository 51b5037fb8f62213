package filters

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// DefaultComplaintPatterns are matched against lower-cased, normalized text.
// Apostrophes are optional so "isnt" and "isn't" both match.
var DefaultComplaintPatterns = []string{
	`i wish`,
	`why isn'?t there`,
	`someone needs`,
	`i hate`,
	`this sucks`,
	`annoying`,
	`frustrated`,
	`can'?t find`,
	`should be`,
	`need a`,
	`want a`,
	`looking for`,
	`hard to`,
	`difficult to`,
	`wish there was`,
	`if only`,
	`would be great if`,
	`why can'?t`,
	`why do`,
	`why does`,
}

var apostropheReplacer = strings.NewReplacer(
	"‘", "'", // left single quotation mark
	"’", "'", // right single quotation mark
	"ʼ", "'", // modifier letter apostrophe
	"′", "'", // prime
	"`", "'",
)

// Normalize folds text into the form the patterns are written against: NFKC, ASCII
// apostrophes, case-folded, runs of whitespace collapsed to one space.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	s := norm.NFKC.String(text)
	s = apostropheReplacer.Replace(s)
	s = cases.Fold().String(s)

	return strings.Join(strings.Fields(s), " ")
}
