// Package catalog resolves free-text complaint type names to catalog ids.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/Santiagopro2002/Denuncias-gad-api/internal/model"
	"github.com/Santiagopro2002/Denuncias-gad-api/internal/store"
)

// synonyms maps common citizen wording to a fragment of a catalog name.
var synonyms = map[string]string{
	"basura":    "basura",
	"desecho":   "basura",
	"desechos":  "basura",
	"residuos":  "basura",
	"limpieza":  "basura",
	"aseo":      "basura",
	"trash":     "basura",
	"garbage":   "basura",
	"luz":       "alumbrado",
	"luminaria": "alumbrado",
	"lampara":   "alumbrado",
	"lámpara":   "alumbrado",
	"poste":     "alumbrado",
	"foco":      "alumbrado",
	"bache":     "vías",
	"baches":    "vías",
	"hueco":     "vías",
	"calle":     "vías",
	"carretera": "vías",
	"vereda":    "vías",
	"agua":      "agua",
	"ruido":     "ruido",
	"bulla":     "ruido",
}

// Lookup resolves category names against the active catalog.
type Lookup struct {
	categories store.CategoryReader
}

// NewLookup creates a catalog lookup.
func NewLookup(categories store.CategoryReader) *Lookup {
	return &Lookup{categories: categories}
}

// List returns the active categories sorted by name.
func (l *Lookup) List(ctx context.Context) ([]model.Category, error) {
	cats, err := l.categories.ActiveCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return cats, nil
}

// Active reports whether id names an active category.
func (l *Lookup) Active(ctx context.Context, id int64) (bool, error) {
	cats, err := l.List(ctx)
	if err != nil {
		return false, err
	}
	for _, c := range cats {
		if c.ID == id {
			return true, nil
		}
	}
	return false, nil
}

// Resolve returns the id of the first active category matching text, either
// directly or through a known synonym. ok is false when nothing matches.
func (l *Lookup) Resolve(ctx context.Context, text string) (int64, bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false, nil
	}

	matches, err := l.categories.MatchCategories(ctx, text)
	if err != nil {
		return 0, false, fmt.Errorf("failed to match category: %w", err)
	}
	if len(matches) > 0 {
		return matches[0].ID, true, nil
	}

	fragment, ok := synonymFor(text)
	if !ok {
		return 0, false, nil
	}
	matches, err = l.categories.MatchCategories(ctx, fragment)
	if err != nil {
		return 0, false, fmt.Errorf("failed to match category synonym: %w", err)
	}
	if len(matches) > 0 {
		return matches[0].ID, true, nil
	}
	return 0, false, nil
}

// synonymFor checks each word of text against the synonym table in order.
func synonymFor(text string) (string, bool) {
	for _, word := range strings.FieldsFunc(strings.ToLower(text), isSeparator) {
		if fragment, ok := synonyms[word]; ok {
			return fragment, true
		}
	}
	return "", false
}

func isSeparator(r rune) bool {
	switch r {
	case ' ', '\t', ',', '.', ';', ':', '/', '-', '(', ')':
		return true
	}
	return false
}
