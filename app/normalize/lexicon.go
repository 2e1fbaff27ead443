package normalize

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lexicon holds the heuristic vocabularies the normalizer classifies
// venue and address text against. It is plain data so a deployment can
// swap it per locale without touching code.
type Lexicon struct {
	// PlaceholderNames are venue-name strings that carry no venue
	// information ("tba", "venue", ...). Matched on the whole string.
	PlaceholderNames []string `yaml:"placeholder_names"`

	// MarketingWords mark a venue-name string as a misclassified
	// activity title. Matched as substrings.
	MarketingWords []string `yaml:"marketing_words"`

	// LocationNouns are vocabulary words that signal a real address.
	// Matched on word boundaries.
	LocationNouns []string `yaml:"location_nouns"`

	// CityVariants are spellings of the catalog's city that should
	// collapse to a single mention ("bangalore", "bengaluru").
	CityVariants []string `yaml:"city_variants"`

	// PostalCodePrefix is the leading digits of the region's postal
	// codes ("560" for Bengaluru). Empty disables the postal signal.
	PostalCodePrefix string `yaml:"postal_code_prefix"`
}

// DefaultLexicon returns the built-in Bengaluru vocabulary.
func DefaultLexicon() Lexicon {
	return Lexicon{
		PlaceholderNames: []string{
			"venue", "location", "tba", "to be announced", "online", "na", "n/a",
		},
		MarketingWords: []string{
			"learn", "discover", "build", "explore", "experience",
			"workshop", "training", "session", "masterclass",
		},
		LocationNouns: []string{
			"road", "rd", "street", "st", "nagar", "layout", "main",
			"mall", "campus", "auditorium", "park", "grounds",
		},
		CityVariants:     []string{"bangalore", "bengaluru"},
		PostalCodePrefix: "560",
	}
}

// LoadLexicon reads a YAML lexicon override from path. An empty path
// returns the default lexicon. Fields left empty in the file fall back
// to the defaults so an override only needs to name what it changes.
func LoadLexicon(path string) (Lexicon, error) {
	lex := DefaultLexicon()
	if path == "" {
		return lex, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return lex, fmt.Errorf("failed to read lexicon file: %w", err)
	}

	var override Lexicon
	if err := yaml.Unmarshal(data, &override); err != nil {
		return lex, fmt.Errorf("failed to parse lexicon file: %w", err)
	}

	if len(override.PlaceholderNames) > 0 {
		lex.PlaceholderNames = override.PlaceholderNames
	}
	if len(override.MarketingWords) > 0 {
		lex.MarketingWords = override.MarketingWords
	}
	if len(override.LocationNouns) > 0 {
		lex.LocationNouns = override.LocationNouns
	}
	if len(override.CityVariants) > 0 {
		lex.CityVariants = override.CityVariants
	}
	if override.PostalCodePrefix != "" {
		lex.PostalCodePrefix = override.PostalCodePrefix
	}

	return lex, nil
}

// signalPattern compiles the address-signal regexp for the lexicon: a
// street-number digit run, any location noun on a word boundary, or a
// regional postal code.
func (l Lexicon) signalPattern() *regexp.Regexp {
	parts := []string{`\d{3,}`}
	if len(l.LocationNouns) > 0 {
		quoted := make([]string, 0, len(l.LocationNouns))
		for _, noun := range l.LocationNouns {
			quoted = append(quoted, regexp.QuoteMeta(strings.ToLower(noun)))
		}
		parts = append(parts, `\b(?:`+strings.Join(quoted, "|")+`)\b`)
	}
	if l.PostalCodePrefix != "" {
		parts = append(parts, `\b`+regexp.QuoteMeta(l.PostalCodePrefix)+`\d{3}\b`)
	}
	return regexp.MustCompile(`(?i)` + strings.Join(parts, "|"))
}

func (l Lexicon) isPlaceholder(name string) bool {
	for _, p := range l.PlaceholderNames {
		if name == p {
			return true
		}
	}
	return false
}

func (l Lexicon) hasMarketingWord(name string) bool {
	for _, w := range l.MarketingWords {
		if strings.Contains(name, w) {
			return true
		}
	}
	return false
}

func (l Lexicon) isCityVariant(part string) bool {
	for _, v := range l.CityVariants {
		if strings.EqualFold(part, v) {
			return true
		}
	}
	return false
}
