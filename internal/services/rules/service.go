// Package rules holds the client-local automation rules. Toggling a rule
// changes local state only; nothing is sent to the Ledger Service.
package rules

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bobmcallan/wmtb/internal/common"
	"github.com/bobmcallan/wmtb/internal/models"
)

// ErrRuleNotFound is returned when toggling an unknown rule id.
var ErrRuleNotFound = errors.New("rule not found")

// DefaultRules returns a fresh copy of the built-in rules.
func DefaultRules() []models.Rule {
	return []models.Rule{
		{ID: 1, Name: "Low Balance Alert", Description: "Alert when balance below TZS 50,000", Icon: "warning", IsActive: true},
		{ID: 2, Name: "Auto-Categorize M-Pesa", Description: "Parse M-Pesa SMS automatically", Icon: "sms", IsActive: true},
		{ID: 3, Name: "Weekly Spending Report", Description: "Send report every Sunday", Icon: "assessment", IsActive: false},
		{ID: 4, Name: "Save 10% of Income", Description: "Auto-save to virtual envelope", Icon: "savings", IsActive: true},
		{ID: 5, Name: "Food Budget Limit", Description: "Alert when food spending > TZS 100,000/month", Icon: "restaurant", IsActive: true},
	}
}

// Service manages the rule set for one session
type Service struct {
	mu     sync.RWMutex
	rules  []models.Rule
	logger *common.Logger
}

// NewService creates a rules service seeded with DefaultRules
func NewService(logger *common.Logger) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Service{
		rules:  DefaultRules(),
		logger: logger,
	}
}

// List returns a copy of the rules in display order
func (s *Service) List() []models.Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Rule(nil), s.rules...)
}

// Toggle flips IsActive for the rule with id and returns the updated rule
func (s *Service) Toggle(id int) (models.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.rules {
		if s.rules[i].ID == id {
			s.rules[i].IsActive = !s.rules[i].IsActive
			s.logger.Info().Int("rule_id", id).Bool("active", s.rules[i].IsActive).Msg("Rule toggled")
			return s.rules[i], nil
		}
	}
	return models.Rule{}, fmt.Errorf("toggle rule %d: %w", id, ErrRuleNotFound)
}
