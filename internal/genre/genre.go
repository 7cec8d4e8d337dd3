// Package genre folds fine-grained genre tags into a small set of
// consolidated categories.
package genre

import (
	"strings"

	"golang.org/x/text/cases"
)

// Other is returned for genres matching no rule. Such rows are excluded from
// training.
const Other = "Other"

type rule struct {
	label    string
	contains []string
}

// Order matters: the first matching rule wins, so "k-pop" lands in Pop and
// "reggaeton" in Latin before the reggae rule is consulted.
var rules = []rule{
	{"Rock", []string{"rock"}},
	{"Pop", []string{"pop", "pop-film"}},
	{"Hip-Hop", []string{"hip-hop", "rap"}},
	{"R&B/Soul/Funk", []string{"r-n-b", "soul", "funk"}},
	{"Electronic", []string{"techno", "trance", "house", "edm", "electro", "electronic", "dubstep", "drum-and-bass"}},
	{"Classical", []string{"classical", "opera"}},
	{"Jazz", []string{"jazz", "bossanova"}},
	{"Folk/Acoustic", []string{"acoustic", "folk", "bluegrass"}},
	{"Metal", []string{"metal"}},
	{"Latin", []string{"latin", "latino", "salsa", "samba", "reggaeton"}},
	{"Reggae/Ska", []string{"reggae", "ska"}},
	{"Indie", []string{"indie"}},
	{"World Music", []string{"world-music", "indian", "malay", "mandopop", "j-pop", "k-pop", "turkish"}},
}

// Consolidate maps a raw genre tag onto its consolidated label. Matching is a
// case-insensitive substring test. Unmatched input yields Other.
func Consolidate(raw string) string {
	folded := cases.Fold().String(raw)
	for _, r := range rules {
		for _, needle := range r.contains {
			if strings.Contains(folded, needle) {
				return r.label
			}
		}
	}
	return Other
}

// IsOther reports whether label is the catch-all bucket.
func IsOther(label string) bool {
	return label == Other
}
