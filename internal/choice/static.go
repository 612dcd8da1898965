package choice

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"gopkg.in/yaml.v3"
)

//go:embed data/static.yaml
var staticYAML []byte

type staticData struct {
	Countries []string `yaml:"countries"`
	Locales   []string `yaml:"locales"`
	Regions   []struct {
		Country string   `yaml:"country"`
		Regions []string `yaml:"regions"`
	} `yaml:"regions"`
	Timezones []string `yaml:"timezones"`
}

type staticSets struct {
	countries Set
	locales   Set
	regions   Set
	timezones Set
}

var loadStatic = sync.OnceValues(func() (*staticSets, error) {
	var data staticData
	if err := yaml.Unmarshal(staticYAML, &data); err != nil {
		return nil, fmt.Errorf("parse static choices: %w", err)
	}

	sets := &staticSets{}
	regionNames := display.English.Regions()
	for _, code := range data.Countries {
		region, err := language.ParseRegion(code)
		if err != nil {
			return nil, fmt.Errorf("country %q: %w", code, err)
		}
		name := regionNames.Name(region)
		sets.countries = sets.countries.Add(name, name)
	}

	tagNames := display.English.Tags()
	for _, locale := range data.Locales {
		tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
		if err != nil {
			return nil, fmt.Errorf("locale %q: %w", locale, err)
		}
		sets.locales = sets.locales.Add(locale, tagNames.Name(tag))
	}

	for _, group := range data.Regions {
		for _, r := range group.Regions {
			sets.regions = sets.regions.AddGrouped(group.Country, r, r)
		}
	}

	for _, tz := range data.Timezones {
		group, city, found := strings.Cut(tz, "/")
		if !found {
			city = tz
		}
		sets.timezones = sets.timezones.AddGrouped(group, tz, strings.ReplaceAll(city, "_", " "))
	}
	return sets, nil
})

func mustStatic() *staticSets {
	sets, err := loadStatic()
	if err != nil {
		// The data is embedded at build time; failing here is a build defect.
		panic(err)
	}
	return sets
}

// Countries returns country names keyed by themselves, in ISO code order.
func Countries() Set { return mustStatic().countries.Clone() }

// Locales returns locale identifiers labelled with their English display name.
func Locales() Set { return mustStatic().locales.Clone() }

// Regions returns states and provinces grouped by country.
func Regions() Set { return mustStatic().regions.Clone() }

// Timezones returns IANA zone names grouped by continent.
func Timezones() Set { return mustStatic().timezones.Clone() }

// Translator resolves a message key into a localized string.
type Translator interface {
	Trans(key string, params map[string]string) string
}

// Message keys for the boolean choices.
const (
	KeyNo  = "form.no"
	KeyYes = "form.yes"
)

// Boolean returns exactly {0: no, 1: yes}, in that order.
func Boolean(tr Translator) Set {
	return Of("0", tr.Trans(KeyNo, nil), "1", tr.Trans(KeyYes, nil))
}
