// Package l10n resolves localized text with a deterministic fallback
// chain. Terms, categories and labels all resolve through the same
// policy so it is defined once.
package l10n

// DefaultLocale is the second step of the fallback chain.
const DefaultLocale = "en"

// Placeholders returned when no translation exists at all.
const (
	PlaceholderName        = "Untitled Term"
	PlaceholderDescription = "No description available"
)

// Translation is one localized name/description pair.
type Translation struct {
	LanguageCode string
	Name         string
	Description  string
}

// Resolved is the text selected for display.
type Resolved struct {
	Name        string
	Description string
	// LanguageCode is the language the text was taken from, empty when
	// the placeholders were used.
	LanguageCode string
}

// Resolve picks the best translation for the requested locale: exact
// match first, then "en", then the first stored entry. An empty set
// yields the fixed placeholders. The function is total and never
// depends on map iteration order.
func Resolve(translations []Translation, requestedLocale string) Resolved {
	if match, ok := find(translations, requestedLocale); ok {
		return match
	}
	if match, ok := find(translations, DefaultLocale); ok {
		return match
	}
	if len(translations) > 0 {
		return resolved(translations[0])
	}
	return Resolved{Name: PlaceholderName, Description: PlaceholderDescription}
}

func find(translations []Translation, locale string) (Resolved, bool) {
	if locale == "" {
		return Resolved{}, false
	}
	for _, tr := range translations {
		if tr.LanguageCode == locale {
			return resolved(tr), true
		}
	}
	return Resolved{}, false
}

func resolved(tr Translation) Resolved {
	name := tr.Name
	if name == "" {
		name = PlaceholderName
	}
	description := tr.Description
	if description == "" {
		description = PlaceholderDescription
	}
	return Resolved{Name: name, Description: description, LanguageCode: tr.LanguageCode}
}
