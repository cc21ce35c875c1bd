package chat

import (
	"math/rand"
	"strings"
	"sync"
)

// Rule maps trigger keywords to one canned reply. Rules are checked
// in order; the first rule with a matching keyword answers.
type Rule struct {
	Keywords []string
	Reply    string
}

// Responder answers messages from a fixed rule table. There is no
// model behind it and no state; conversation history is the caller's
// problem.
type Responder struct {
	rules     []Rule
	facts     []string
	fallbacks []string

	// rngMu serializes draws; *rand.Rand is not goroutine-safe and
	// Reply is called from concurrent request handlers.
	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewResponder(rules []Rule, facts, fallbacks []string, rng *rand.Rand) *Responder {
	return &Responder{rules: rules, facts: facts, fallbacks: fallbacks, rng: rng}
}

// Reply resolves a message to a canned response. Asking for a "fact"
// serves a random industry fact; unmatched messages get a fallback
// prompt.
func (r *Responder) Reply(message string) string {
	lower := strings.ToLower(message)

	if len(r.facts) > 0 && (strings.Contains(lower, "fact") || strings.Contains(lower, "interesting")) {
		return r.facts[r.intn(len(r.facts))]
	}

	for _, rule := range r.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Reply
			}
		}
	}

	if len(r.fallbacks) == 0 {
		return ""
	}
	return r.fallbacks[r.intn(len(r.fallbacks))]
}

func (r *Responder) intn(n int) int {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()
	return r.rng.Intn(n)
}

// DefaultRules covers the beverage topics the widget knows about.
func DefaultRules() []Rule {
	return []Rule{
		{
			Keywords: []string{"beer", "brewery"},
			Reply:    "Beer is the largest segment of the alcoholic beverage market. Major trends include craft beer growth, low-calorie options, and sustainability initiatives.",
		},
		{
			Keywords: []string{"wine", "winery"},
			Reply:    "The wine market is experiencing growth in emerging regions. Key trends: organic wines, natural wines, and direct-to-consumer sales.",
		},
		{
			Keywords: []string{"spirit", "whiskey", "vodka", "rum"},
			Reply:    "Spirits are the highest-margin beverage category. Premium spirits and craft distilleries are leading growth.",
		},
		{
			Keywords: []string{"rtd", "seltzer", "premix"},
			Reply:    "Ready-to-drink cocktails and hard seltzers are the fastest-moving formats, led by convenience and lower alcohol content.",
		},
		{
			Keywords: []string{"regulation", "law", "license"},
			Reply:    "Beverage regulations vary significantly by state. Key focus areas: labeling requirements, alcohol content restrictions, and distribution rules.",
		},
		{
			Keywords: []string{"market", "trend"},
			Reply:    "The beverage market is evolving rapidly with premiumization, health consciousness, and e-commerce expansion.",
		},
	}
}

func DefaultFacts() []string {
	return []string{
		"The global beverage market is worth over $2 trillion annually.",
		"Beer accounts for roughly half of worldwide alcohol consumption.",
		"Craft beer represents over 13% of the US beer market by value.",
		"Hard seltzers captured 5% of the beverage alcohol market in just three years.",
		"E-commerce alcohol sales are growing about 30% annually.",
		"Non-alcoholic beverages are growing three times faster than alcoholic drinks.",
		"Direct-to-consumer sales are disrupting traditional three-tier distribution.",
	}
}

func DefaultFallbacks() []string {
	return []string{
		"I can help with beverage industry trends, regulations, and market data. Ask me about beer, wine, spirits, or RTDs.",
		"Ask me about any beverage industry topic, from market trends to regulatory updates.",
		"The beverage industry is dynamic. I can discuss trends, regulations, and specific segments. What interests you?",
	}
}
