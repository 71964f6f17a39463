package store

import (
	"strings"

	"github.com/bdx-project/bdx/internal/record"
)

// termsFor returns every posting key ("field\x00term") a record
// should be indexed under, following the field schema in
// record.Fields (spec §4.2).
func termsFor(rec record.Symbol) map[string]bool {
	terms := map[string]bool{}
	add := func(field, term string) { terms[postingKey(field, term)] = true }

	for _, tok := range record.Tokenize(rec.Name) {
		add("name", tok)
	}
	add("fullname", rec.Name)

	for _, tok := range record.TokenizePath(rec.Path) {
		add("path", tok)
	}
	add("path", strings.ToLower(rec.Path))

	add("section", rec.Section)
	add("type", rec.Type.String())

	for _, rel := range rec.Relocations {
		add("relocations", rel)
	}

	if rec.Source != "" {
		for _, tok := range record.Tokenize(rec.Source) {
			add("source", tok)
		}
		add("source", strings.ToLower(rec.Source))
	}

	return terms
}
