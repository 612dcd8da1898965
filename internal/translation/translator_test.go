package translation

import (
	"strings"
	"testing"
)

func TestNew_DefaultsToEnglish(t *testing.T) {
	tr, err := New("")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if tr.Locale() != "en" {
		t.Errorf("Locale() = %q, want en", tr.Locale())
	}
}

func TestNew_UnknownLocale(t *testing.T) {
	if _, err := New("xx"); err == nil {
		t.Fatal("New(xx) should fail")
	}
}

func TestTrans_SubstitutesParams(t *testing.T) {
	tr, err := New("en_US")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	got := tr.Trans("contact.export.being_prepared", map[string]string{"%user_email%": "a@b.com"})
	if !strings.Contains(got, "a@b.com") {
		t.Fatalf("Trans() = %q, want it to contain the email", got)
	}
	if strings.Contains(got, "%user_email%") {
		t.Errorf("placeholder left in %q", got)
	}
}

func TestTrans_MissingKeyReturnsKey(t *testing.T) {
	tr, _ := New("en")
	if got := tr.Trans("does.not.exist", nil); got != "does.not.exist" {
		t.Errorf("Trans() = %q, want the key", got)
	}
}

func TestWithLocale(t *testing.T) {
	tr, _ := New("en")
	fr := tr.WithLocale("fr-FR")
	if got := fr.Trans("form.yes", nil); got != "Oui" {
		t.Errorf("fr form.yes = %q, want Oui", got)
	}
	if got := tr.Trans("form.yes", nil); got != "Yes" {
		t.Errorf("en form.yes = %q, want Yes", got)
	}
	if same := tr.WithLocale("zz"); same != tr {
		t.Error("unknown locale should keep the current translator")
	}
}

func TestCatalogsShareKeys(t *testing.T) {
	tr, _ := New("en")
	en := tr.catalogs["en"]
	for _, locale := range tr.Locales() {
		for key := range en {
			if _, ok := tr.catalogs[locale][key]; !ok {
				t.Errorf("locale %s missing key %s", locale, key)
			}
		}
	}
}
