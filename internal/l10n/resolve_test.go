package l10n

import "testing"

func TestResolveExactMatch(t *testing.T) {
	translations := []Translation{
		{LanguageCode: "en", Name: "Tooth", Description: "A hard structure in the jaw"},
		{LanguageCode: "lv", Name: "Zobs", Description: "Ciets veidojums žoklī"},
	}

	got := Resolve(translations, "lv")
	if got.Name != "Zobs" || got.LanguageCode != "lv" {
		t.Fatalf("expected lv translation, got %+v", got)
	}
}

func TestResolveFallsBackToEnglish(t *testing.T) {
	translations := []Translation{
		{LanguageCode: "lv", Name: "Zobs", Description: "Ciets veidojums žoklī"},
		{LanguageCode: "en", Name: "Tooth", Description: "A hard structure in the jaw"},
	}

	got := Resolve(translations, "de")
	if got.Name != "Tooth" || got.LanguageCode != "en" {
		t.Fatalf("expected en fallback, got %+v", got)
	}
}

func TestResolveFallsBackToFirstStored(t *testing.T) {
	translations := []Translation{
		{LanguageCode: "lv", Name: "Zobs", Description: "Ciets veidojums žoklī"},
	}

	got := Resolve(translations, "en")
	if got.Name != "Zobs" || got.LanguageCode != "lv" {
		t.Fatalf("expected sole stored entry, got %+v", got)
	}
}

func TestResolveEmptySetReturnsPlaceholders(t *testing.T) {
	for _, locale := range []string{"", "en", "lv"} {
		got := Resolve(nil, locale)
		if got.Name != PlaceholderName || got.Description != PlaceholderDescription {
			t.Fatalf("locale %q: expected placeholders, got %+v", locale, got)
		}
		if got.LanguageCode != "" {
			t.Fatalf("locale %q: placeholder result should carry no language, got %q", locale, got.LanguageCode)
		}
	}
}

func TestResolveBlankFieldsUsePlaceholders(t *testing.T) {
	translations := []Translation{{LanguageCode: "en", Name: "", Description: ""}}

	got := Resolve(translations, "en")
	if got.Name != PlaceholderName || got.Description != PlaceholderDescription {
		t.Fatalf("expected placeholders for blank fields, got %+v", got)
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	translations := []Translation{
		{LanguageCode: "lv", Name: "Zobs"},
		{LanguageCode: "de", Name: "Zahn"},
	}

	first := Resolve(translations, "fr")
	for i := 0; i < 10; i++ {
		if got := Resolve(translations, "fr"); got != first {
			t.Fatalf("resolve not deterministic: %+v vs %+v", got, first)
		}
	}
	if first.Name != "Zobs" {
		t.Fatalf("expected first stored entry, got %+v", first)
	}
}
