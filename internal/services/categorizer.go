package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ashmitsharp/trackmoney-api/internal/models"
)

// Match types understood by a Rule
const (
	MatchExact     = "exact"
	MatchSubstring = "substring"
	MatchRegex     = "regex"
	MatchFuzzy     = "fuzzy"
)

// Rule maps a description keyword to a category
type Rule struct {
	Keyword             string
	Category            string
	Type                models.TransactionType
	Priority            int32
	MatchType           string  // substring, regex, exact, fuzzy
	SimilarityThreshold float64 // For fuzzy matching (0-1)

	re *regexp.Regexp
}

// Suggestion is the outcome of Categorizer.Suggest
type Suggestion struct {
	Category string  `json:"category"`
	Score    float64 `json:"score"`
	Matched  bool    `json:"matched"`
}

// Categorizer suggests a category for a free-text description
type Categorizer struct {
	rules []Rule
}

// DefaultRules covers the common descriptions for every built-in category
func DefaultRules() []Rule {
	expense := models.TransactionTypeExpense
	income := models.TransactionTypeIncome

	return []Rule{
		{Keyword: "credit card", Category: "Credit Card Payment", Type: expense, Priority: 30, MatchType: MatchSubstring},
		{Keyword: `\b(LOAN|EMI|MORTGAGE)\b`, Category: "Loan Payment", Type: expense, Priority: 30, MatchType: MatchRegex},
		{Keyword: "debt", Category: "Debt Payment", Type: expense, Priority: 25, MatchType: MatchSubstring},
		{Keyword: "emergency", Category: "Emergency Fund", Type: expense, Priority: 30, MatchType: MatchSubstring},
		{Keyword: `\b(401K|IRA|PENSION|RETIREMENT)\b`, Category: "Retirement", Type: expense, Priority: 30, MatchType: MatchRegex},
		{Keyword: "savings", Category: "Savings", Type: expense, Priority: 20, MatchType: MatchFuzzy, SimilarityThreshold: 0.8},
		{Keyword: `\b(RENT|ELECTRIC|WATER|GAS BILL|INTERNET|PHONE)\b`, Category: "Bills/Utilities", Type: expense, Priority: 20, MatchType: MatchRegex},
		{Keyword: "utilities", Category: "Bills/Utilities", Type: expense, Priority: 20, MatchType: MatchFuzzy, SimilarityThreshold: 0.8},
		{Keyword: "groceries", Category: "Groceries", Type: expense, Priority: 20, MatchType: MatchFuzzy, SimilarityThreshold: 0.8},
		{Keyword: "supermarket", Category: "Groceries", Type: expense, Priority: 20, MatchType: MatchSubstring},
		{Keyword: `\b(NETFLIX|SPOTIFY|HULU|DISNEY|YOUTUBE PREMIUM|ICLOUD)\b`, Category: "Subscriptions", Type: expense, Priority: 20, MatchType: MatchRegex},
		{Keyword: "subscription", Category: "Subscriptions", Type: expense, Priority: 15, MatchType: MatchFuzzy, SimilarityThreshold: 0.8},

		{Keyword: `\b(SALARY|PAYROLL|PAYCHECK|WAGES)\b`, Category: "Salary", Type: income, Priority: 30, MatchType: MatchRegex},
		{Keyword: "freelance", Category: "Freelance", Type: income, Priority: 20, MatchType: MatchFuzzy, SimilarityThreshold: 0.8},
		{Keyword: "invoice", Category: "Freelance", Type: income, Priority: 15, MatchType: MatchSubstring},
		{Keyword: `\b(DIVIDEND|INTEREST|STOCK|CRYPTO)\b`, Category: "Investments", Type: income, Priority: 20, MatchType: MatchRegex},
		{Keyword: "gift", Category: "Gifts", Type: income, Priority: 20, MatchType: MatchSubstring},
		{Keyword: "birthday", Category: "Gifts", Type: income, Priority: 15, MatchType: MatchSubstring},
	}
}

// NewCategorizer compiles rules. Every rule must name a category from its
// type's set, and regex rules must compile.
func NewCategorizer(rules []Rule) (*Categorizer, error) {
	compiled := make([]Rule, 0, len(rules))
	for _, rule := range rules {
		if !rule.Type.Valid() {
			return nil, fmt.Errorf("rule %q: invalid transaction type %q", rule.Keyword, rule.Type)
		}
		if !models.IsKnownCategory(rule.Type, rule.Category) {
			return nil, fmt.Errorf("rule %q: %q is not a %s category", rule.Keyword, rule.Category, rule.Type)
		}
		if rule.MatchType == MatchRegex {
			re, err := regexp.Compile(rule.Keyword)
			if err != nil {
				return nil, fmt.Errorf("rule %q: %w", rule.Keyword, err)
			}
			rule.re = re
		}
		compiled = append(compiled, rule)
	}
	return &Categorizer{rules: compiled}, nil
}

// MustNewCategorizer is NewCategorizer for rule sets known to be valid
func MustNewCategorizer(rules []Rule) *Categorizer {
	c, err := NewCategorizer(rules)
	if err != nil {
		panic(err)
	}
	return c
}

// Suggest returns the best category for description among the rules for typ.
// Without a match the suggestion is Other.
func (c *Categorizer) Suggest(description string, typ models.TransactionType) Suggestion {
	var candidates []Rule
	for _, rule := range c.rules {
		if rule.Type == typ {
			candidates = append(candidates, rule)
		}
	}

	category, score := c.matchDescription(description, candidates)
	if category == "" {
		return Suggestion{Category: models.CategoryOther}
	}
	return Suggestion{Category: category, Score: score, Matched: true}
}

// matchDescription finds the best matching rule for a description
func (c *Categorizer) matchDescription(description string, rules []Rule) (string, float64) {
	descUpper := strings.ToUpper(strings.TrimSpace(description))
	descLower := strings.ToLower(descUpper)
	if descLower == "" {
		return "", 0
	}

	var bestMatch string
	highestPriority := int32(-1)
	highestScore := 0.0

	for _, rule := range rules {
		var matched bool
		var score float64

		// Regex rules are written against upper case descriptions
		if rule.MatchType == MatchRegex {
			matched, score = c.matchRule(descUpper, rule)
		} else {
			matched, score = c.matchRule(descLower, rule)
		}
		if !matched {
			continue
		}

		if rule.Priority > highestPriority {
			bestMatch = rule.Category
			highestPriority = rule.Priority
			highestScore = score
		} else if rule.Priority == highestPriority && score > highestScore {
			bestMatch = rule.Category
			highestScore = score
		}
	}

	return bestMatch, highestScore
}

func (c *Categorizer) matchRule(description string, rule Rule) (bool, float64) {
	keyword := strings.ToLower(rule.Keyword)
	switch rule.MatchType {
	case MatchExact:
		return c.matchExact(description, keyword)
	case MatchRegex:
		return c.matchRegex(description, rule.re)
	case MatchFuzzy:
		return c.matchFuzzy(description, keyword, rule.SimilarityThreshold)
	default:
		return c.matchSubstring(description, keyword)
	}
}

func (c *Categorizer) matchExact(description, keyword string) (bool, float64) {
	if description == keyword {
		return true, 1.0
	}
	return false, 0.0
}

// matchSubstring scores by how much of the description the keyword covers
func (c *Categorizer) matchSubstring(description, keyword string) (bool, float64) {
	if keyword == "" || !strings.Contains(description, keyword) {
		return false, 0.0
	}
	return true, float64(len(keyword)) / float64(len(description))
}

func (c *Categorizer) matchRegex(description string, re *regexp.Regexp) (bool, float64) {
	if re == nil || !re.MatchString(description) {
		return false, 0.0
	}
	return true, 0.8
}

// matchFuzzy compares the keyword against the whole description and then
// against each word, so "grocries at market" still finds "groceries"
func (c *Categorizer) matchFuzzy(description, keyword string, threshold float64) (bool, float64) {
	if strings.Contains(description, keyword) {
		return true, 1.0
	}

	if similarity := c.calculateSimilarity(description, keyword); similarity >= threshold {
		return true, similarity
	}

	maxSimilarity := 0.0
	for _, word := range strings.Fields(description) {
		similarity := c.calculateSimilarity(word, keyword)
		if similarity >= threshold {
			return true, similarity
		}
		maxSimilarity = max(maxSimilarity, similarity)
	}
	return false, maxSimilarity
}

// calculateSimilarity returns 1 for identical strings and 0 for nothing in common
func (c *Categorizer) calculateSimilarity(s1, s2 string) float64 {
	if len(s1) == 0 && len(s2) == 0 {
		return 1.0
	}
	if len(s1) == 0 || len(s2) == 0 {
		return 0.0
	}

	distance := c.levenshteinDistance(s1, s2)
	return 1.0 - float64(distance)/float64(max(len(s1), len(s2)))
}

func (c *Categorizer) levenshteinDistance(s1, s2 string) int {
	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(s2)]
}
