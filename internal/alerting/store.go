// Package alerting manages the locally-owned alert rules. Rules live only
// in process memory for the lifetime of the session; there is deliberately
// no durable storage for them.
package alerting

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/threat-view/dashboard-service/internal/metrics"
)

// Rule is one custom alert configuration.
type Rule struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Industry  string   `json:"industry"`
	Keywords  []string `json:"keywords"`
	Targets   []string `json:"targets"`
	AlertType string   `json:"alertType"`
	Frequency string   `json:"frequency"`
	CreatedAt string   `json:"createdAt"`
	Enabled   bool     `json:"enabled"`
}

// Store holds alert rules in insertion order; insertion order is the
// display order.
type Store struct {
	mu        sync.RWMutex
	rules     []Rule
	collector *metrics.Collector
}

// NewStore creates an empty rule store.
func NewStore(collector *metrics.Collector) *Store {
	return &Store{collector: collector}
}

// Set replaces the full rule list.
func (s *Store) Set(rules []Rule) {
	s.mu.Lock()
	s.rules = make([]Rule, len(rules))
	copy(s.rules, rules)
	s.mu.Unlock()
	s.updateGauge()
}

// Seed installs the given rules only when the store is empty.
func (s *Store) Seed(rules []Rule) {
	s.mu.Lock()
	if len(s.rules) == 0 {
		s.rules = make([]Rule, len(rules))
		copy(s.rules, rules)
	}
	s.mu.Unlock()
	s.updateGauge()
}

// List returns a copy of the rules in display order.
func (s *Store) List() []Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// Add appends a rule, preserving existing order. A missing ID or creation
// timestamp is filled in.
func (s *Store) Add(rule Rule) Rule {
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	if rule.CreatedAt == "" {
		rule.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	s.mu.Lock()
	s.rules = append(s.rules, rule)
	s.mu.Unlock()
	s.updateGauge()
	return rule
}

// Toggle flips the Enabled field of the rule with the given ID, leaving all
// other fields and rules untouched. Unknown IDs are a no-op. It reports
// whether a rule was found.
func (s *Store) Toggle(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rules {
		if s.rules[i].ID == id {
			s.rules[i].Enabled = !s.rules[i].Enabled
			return true
		}
	}
	return false
}

// Delete removes exactly one rule with the given ID and reports whether a
// rule was removed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	removed := false
	for i := range s.rules {
		if s.rules[i].ID == id {
			s.rules = append(s.rules[:i], s.rules[i+1:]...)
			removed = true
			break
		}
	}
	s.mu.Unlock()
	if removed {
		s.updateGauge()
	}
	return removed
}

func (s *Store) updateGauge() {
	if s.collector == nil {
		return
	}
	s.mu.RLock()
	n := len(s.rules)
	s.mu.RUnlock()
	s.collector.SetAlertRules(n)
}
