package locale

import "golang.org/x/text/language"

// Builtin returns an English catalog with German and French translations of
// the built-in filter names and rule categories.
func Builtin() *Catalog {
	c := New(language.English)
	c.Add(language.German, map[string]string{
		"Entire Database":         "Gesamte Datenbank",
		"Filter %s":               "Filter %s",
		"Descendants of %s":       "Nachkommen von %s",
		"Ancestors of %s":         "Vorfahren von %s",
		"People with the name %s": "Personen mit dem Namen %s",
		"Places enclosed by %s":   "Orte innerhalb von %s",
		"General filters":         "Allgemeine Filter",
		"Family filters":          "Familienfilter",
		"Position filters":        "Positionsfilter",
		"Applying ...":            "Wird angewendet ...",
	})
	c.Add(language.French, map[string]string{
		"Entire Database":         "Base de données complète",
		"Filter %s":               "Filtre %s",
		"Descendants of %s":       "Descendants de %s",
		"Ancestors of %s":         "Ascendants de %s",
		"People with the name %s": "Personnes nommées %s",
		"Places enclosed by %s":   "Lieux inclus dans %s",
		"General filters":         "Filtres généraux",
		"Family filters":          "Filtres de famille",
		"Position filters":        "Filtres de position",
		"Applying ...":            "Application ...",
	})
	return c
}
