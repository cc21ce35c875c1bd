package taxonomy

import (
	"regexp"
	"strings"

	"bevbrain/internal/model"
)

// CategoryKeywords is one ordered keyword group. Order across groups
// is the classification priority: the first group with any match wins.
type CategoryKeywords struct {
	Category string
	Keywords []string
}

type State struct {
	Name string
	Abbr string
}

// Matcher maps free text to a category, detected brands and detected
// US states, driven entirely by its configured tables.
type Matcher struct {
	categories []CategoryKeywords
	brands     []string
	states     []State
	abbrRe     *regexp.Regexp
}

func NewMatcher(categories []CategoryKeywords, brands []string, states []State) *Matcher {
	m := &Matcher{
		categories: categories,
		brands:     brands,
		states:     states,
	}

	// Abbreviations only count as standalone uppercase tokens;
	// a bare substring match would fire inside ordinary words.
	var abbrs []string
	for _, s := range states {
		if s.Abbr != "" {
			abbrs = append(abbrs, regexp.QuoteMeta(s.Abbr))
		}
	}
	if len(abbrs) > 0 {
		m.abbrRe = regexp.MustCompile(`\b(` + strings.Join(abbrs, "|") + `)\b`)
	}

	return m
}

// DetectCategory returns the first category whose keyword group
// matches, in table order. Falls back to business.
func (m *Matcher) DetectCategory(text string) string {
	lower := strings.ToLower(text)
	for _, group := range m.categories {
		for _, kw := range group.Keywords {
			if strings.Contains(lower, kw) {
				return group.Category
			}
		}
	}
	return model.CategoryBusiness
}

// DetectBrands returns each configured brand found in the text at most
// once, in first-seen table order. An empty brand list yields nil.
func (m *Matcher) DetectBrands(text string) []string {
	if text == "" || len(m.brands) == 0 {
		return nil
	}
	lower := strings.ToLower(text)
	var found []string
	seen := make(map[string]bool)
	for _, b := range m.brands {
		if seen[b] {
			continue
		}
		if strings.Contains(lower, strings.ToLower(b)) {
			found = append(found, b)
			seen[b] = true
		}
	}
	return found
}

// DetectRegions returns every US state mentioned in the text, by full
// name (case-insensitive) or standalone uppercase abbreviation. An
// empty result means national or international coverage.
func (m *Matcher) DetectRegions(text string) []string {
	if text == "" {
		return nil
	}
	lower := strings.ToLower(text)

	abbrHits := make(map[string]bool)
	if m.abbrRe != nil {
		for _, hit := range m.abbrRe.FindAllString(text, -1) {
			abbrHits[hit] = true
		}
	}

	var found []string
	for _, s := range m.states {
		if strings.Contains(lower, strings.ToLower(s.Name)) || abbrHits[s.Abbr] {
			found = append(found, s.Name)
		}
	}
	return found
}

// DefaultCategories is the beverage-industry keyword taxonomy in
// priority order. Text matching several groups classifies as the
// earliest one, so "beer market" is beer, not trend.
func DefaultCategories() []CategoryKeywords {
	return []CategoryKeywords{
		{model.CategoryBeer, []string{"beer", "brewery", "brewing", "ipa", "lager", "pilsner", "craft beer"}},
		{model.CategoryWine, []string{"wine", "winery", "grapes", "vintage", "burgundy", "chardonnay", "sommelier"}},
		{model.CategorySpirits, []string{"spirits", "spirit", "liquor", "whiskey", "bourbon", "scotch", "vodka", "rum", "gin", "tequila", "cognac", "liqueur", "distillery"}},
		{model.CategoryRTD, []string{"rtd", "canned cocktail", "ready to drink", "premix", "seltzer", "hard seltzer"}},
		{model.CategoryRegulation, []string{"regulation", "regulatory", "law", "tax", "license", "excise", "abc", "fda"}},
		{model.CategoryTrend, []string{"trend", "sales", "growth", "market", "consumer", "innovation"}},
	}
}

// DefaultBrands covers widely covered beverage brands; the live list
// is supplied by configuration.
func DefaultBrands() []string {
	return []string{
		"Tito's", "Fireball", "High Noon", "Smirnoff", "Jack Daniel's",
		"Johnnie Walker", "Jameson", "Absolut", "Bacardi", "Captain Morgan",
		"Grey Goose", "Jim Beam", "Maker's Mark", "Crown Royal", "Jose Cuervo",
		"Don Julio", "Patron", "Modelo", "Corona", "Heineken", "Budweiser",
		"Coors", "Samuel Adams", "Lagunitas", "White Claw", "Truly",
	}
}

func DefaultStates() []State {
	return []State{
		{"Alabama", "AL"}, {"Alaska", "AK"}, {"Arizona", "AZ"}, {"Arkansas", "AR"},
		{"California", "CA"}, {"Colorado", "CO"}, {"Connecticut", "CT"}, {"Delaware", "DE"},
		{"Florida", "FL"}, {"Georgia", "GA"}, {"Hawaii", "HI"}, {"Idaho", "ID"},
		{"Illinois", "IL"}, {"Indiana", "IN"}, {"Iowa", "IA"}, {"Kansas", "KS"},
		{"Kentucky", "KY"}, {"Louisiana", "LA"}, {"Maine", "ME"}, {"Maryland", "MD"},
		{"Massachusetts", "MA"}, {"Michigan", "MI"}, {"Minnesota", "MN"}, {"Mississippi", "MS"},
		{"Missouri", "MO"}, {"Montana", "MT"}, {"Nebraska", "NE"}, {"Nevada", "NV"},
		{"New Hampshire", "NH"}, {"New Jersey", "NJ"}, {"New Mexico", "NM"}, {"New York", "NY"},
		{"North Carolina", "NC"}, {"North Dakota", "ND"}, {"Ohio", "OH"}, {"Oklahoma", "OK"},
		{"Oregon", "OR"}, {"Pennsylvania", "PA"}, {"Rhode Island", "RI"}, {"South Carolina", "SC"},
		{"South Dakota", "SD"}, {"Tennessee", "TN"}, {"Texas", "TX"}, {"Utah", "UT"},
		{"Vermont", "VT"}, {"Virginia", "VA"}, {"Washington", "WA"}, {"West Virginia", "WV"},
		{"Wisconsin", "WI"}, {"Wyoming", "WY"},
	}
}
