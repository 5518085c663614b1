// Package request builds Bulk API widget request paths from hotel identifiers.
package request

import (
	"fmt"
	"iter"
)

// Path returns the widget request path for one identifier, widget and language.
// Values are passed through as given; nothing is escaped or validated.
func Path(id, widget, language string) string {
	return fmt.Sprintf("/hotels/%s/%s.json?lang=%s", id, widget, language)
}

// Generate lazily yields one request path per (identifier, widget, language)
// combination. The identifier is the outermost loop so that requests for the
// same hotel end up in the same or adjacent batches.
func Generate(ids iter.Seq[string], widgets, languages []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for id := range ids {
			for _, widget := range widgets {
				for _, language := range languages {
					if !yield(Path(id, widget, language)) {
						return
					}
				}
			}
		}
	}
}
