// Package parser turns free-text ledger messages such as "lunch 15000" or
// "received salary TZS 250,000" into transactions.
package parser

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/wmtb/internal/interfaces"
	"github.com/bobmcallan/wmtb/internal/models"
)

// Compile-time interface check
var _ interfaces.TransactionParser = (*Parser)(nil)

// DefaultDescription is used when nothing is left after removing amounts.
const DefaultDescription = "Transaction"

// OtherCategory is assigned when no keyword matches.
const OtherCategory = "other"

// amountPatterns are tried in order against the lower-cased text; the first
// match that yields a number wins.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`tzs\s*([\d,]+(?:\.\d{2})?)`),
	regexp.MustCompile(`([\d,]+(?:\.\d{2})?)\s*tzs`),
	regexp.MustCompile(`(\d+)\s*k`),
	regexp.MustCompile(`(\d+(?:,\d+)*(?:\.\d{2})?)`),
}

// descriptionStrip removes currency-tagged and "k" amounts from the description.
// Bare numbers are kept.
var descriptionStrip = []*regexp.Regexp{
	regexp.MustCompile(`(?i)tzs\s*[\d,]+(?:\.\d{2})?`),
	regexp.MustCompile(`(?i)[\d,]+(?:\.\d{2})?\s*tzs`),
	regexp.MustCompile(`(?i)\d+\s*k`),
}

// incomeWords are checked before expenseWords, so "paid for lunch" is income.
var incomeWords = []string{"received", "paid", "salary", "income", "deposit", "sold"}

var expenseWords = []string{"spent", "bought", "purchased", "paid for", "lunch", "fuel"}

// Category is a named keyword group.
type Category struct {
	Name     string
	Keywords []string
}

// DefaultCategories is checked in order; the first group with a keyword
// contained in the text wins.
var DefaultCategories = []Category{
	{Name: "food", Keywords: []string{"lunch", "dinner", "breakfast", "chakula", "cafe", "restaurant"}},
	{Name: "transport", Keywords: []string{"fuel", "petrol", "gas", "transport", "uber", "bolt", "taxi"}},
	{Name: "bills", Keywords: []string{"bill", "electricity", "water", "internet", "tv", "subscription"}},
	{Name: "shopping", Keywords: []string{"shop", "buy", "purchase", "market"}},
	{Name: "income", Keywords: []string{"salary", "paid", "received", "income", "mpesa received"}},
	{Name: "business", Keywords: []string{"inventory", "wholesale", "stock", "supplies"}},
	{Name: "family", Keywords: []string{"school", "medical", "hospital", "family", "mom", "dad"}},
}

// Parser is a keyword and pattern based TransactionParser.
type Parser struct {
	categories []Category
}

// New creates a parser using DefaultCategories.
func New() *Parser {
	return &Parser{categories: DefaultCategories}
}

// Parse interprets text. It never fails: unknown amounts read as 0, unknown
// types as expense and unknown categories as "other".
func (p *Parser) Parse(text string) models.ParsedTransaction {
	lower := strings.ToLower(strings.TrimSpace(text))

	return models.ParsedTransaction{
		Amount:      extractAmount(lower),
		Type:        determineType(lower),
		Category:    p.determineCategory(lower),
		Description: cleanDescription(text),
		RawText:     text,
	}
}

func extractAmount(text string) decimal.Decimal {
	for _, re := range amountPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		d, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
		if err != nil {
			continue
		}
		return d
	}
	return decimal.Zero
}

func determineType(text string) models.TransactionType {
	switch {
	case containsAny(text, incomeWords):
		return models.TxIncome
	case containsAny(text, expenseWords):
		return models.TxExpense
	}
	// most messages are spending
	return models.TxExpense
}

func (p *Parser) determineCategory(text string) string {
	for _, c := range p.categories {
		if containsAny(text, c.Keywords) {
			return c.Name
		}
	}
	return OtherCategory
}

func cleanDescription(text string) string {
	for _, re := range descriptionStrip {
		text = re.ReplaceAllString(text, "")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return DefaultDescription
	}
	return capitalize(text)
}

// capitalize upper-cases the first rune and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
