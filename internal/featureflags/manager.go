// Package featureflags evaluates the toggles that gate marketplace
// behaviour: admin self-approval, enrichment on submit and the feed's tag
// interleaving. Flags come from FEATURE_FLAGS and can be overridden at
// runtime by an admin.
package featureflags

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// Known flags.
const (
	// AdminSelfApproval publishes admin uploads as approved immediately.
	AdminSelfApproval = "admin_self_approval"
	// EnrichOnSubmit fires the enrichment call after every submission.
	EnrichOnSubmit = "enrich_on_submit"
	// FeedInterleave mixes tag tiles into the masonry feed.
	FeedInterleave = "feed_interleave"
)

// Mode is how a rule decides.
type Mode uint8

const (
	ModeOff Mode = iota
	ModeOn
	ModeRollout
)

// Rule is one parsed flag value.
type Rule struct {
	Mode    Mode
	Percent int
}

var (
	On  = Rule{Mode: ModeOn}
	Off = Rule{Mode: ModeOff}
)

var ErrInvalidRule = errors.New("flag value must be on, off or a percentage like 25%")

var known = map[string]Rule{
	AdminSelfApproval: On,
	EnrichOnSubmit:    On,
	FeedInterleave:    On,
}

// ParseRule accepts on/true/1, off/false/0 and N%. Percentages are clamped
// to whole-on or whole-off at the edges.
func ParseRule(value string) (Rule, error) {
	switch v := normalize(value); v {
	case "on", "true", "1":
		return On, nil
	case "off", "false", "0":
		return Off, nil
	default:
		pct, ok := strings.CutSuffix(v, "%")
		if !ok {
			return Rule{}, fmt.Errorf("%w: %q", ErrInvalidRule, value)
		}
		n, err := strconv.Atoi(strings.TrimSpace(pct))
		if err != nil {
			return Rule{}, fmt.Errorf("%w: %q", ErrInvalidRule, value)
		}
		switch {
		case n <= 0:
			return Off, nil
		case n >= 100:
			return On, nil
		}
		return Rule{Mode: ModeRollout, Percent: n}, nil
	}
}

func (r Rule) String() string {
	switch r.Mode {
	case ModeOn:
		return "on"
	case ModeRollout:
		return strconv.Itoa(r.Percent) + "%"
	default:
		return "off"
	}
}

func (r Rule) allows(name string, userID uint) bool {
	switch r.Mode {
	case ModeOn:
		return true
	case ModeRollout:
		// Anonymous viewers stay on the control side of a rollout.
		return userID != 0 && bucket(name, userID) < r.Percent
	default:
		return false
	}
}

// Manager holds the configured rules. Unknown flag names are kept so new
// toggles can be staged before the code reads them.
type Manager struct {
	mu      sync.RWMutex
	rules   map[string]Rule
	invalid []string
}

// NewManager parses a comma-separated list such as
// "admin_self_approval=off,feed_interleave=25%". Entries that do not parse
// are skipped and reported by Invalid.
func NewManager(raw string) *Manager {
	m := &Manager{rules: maps.Clone(known)}
	for entry := range strings.SplitSeq(raw, ",") {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		name, value, ok := strings.Cut(entry, "=")
		if !ok || normalize(name) == "" {
			m.invalid = append(m.invalid, strings.TrimSpace(entry))
			continue
		}
		if err := m.Set(name, value); err != nil {
			m.invalid = append(m.invalid, strings.TrimSpace(entry))
		}
	}
	return m
}

// Set replaces the rule for name.
func (m *Manager) Set(name, value string) error {
	name = normalize(name)
	if name == "" {
		return fmt.Errorf("%w: empty flag name", ErrInvalidRule)
	}
	rule, err := ParseRule(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.rules[name] = rule
	m.mu.Unlock()
	return nil
}

// Enabled reports whether name is on for userID. A nil manager and unknown
// flags are off.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	name = normalize(name)
	m.mu.RLock()
	rule, ok := m.rules[name]
	m.mu.RUnlock()
	return ok && rule.allows(name, userID)
}

// Rules returns every flag with its configured value.
func (m *Manager) Rules() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.rules))
	for name, rule := range m.rules {
		out[name] = rule.String()
	}
	return out
}

// Snapshot evaluates every flag for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]bool, len(m.rules))
	for name, rule := range m.rules {
		out[name] = rule.allows(name, userID)
	}
	return out
}

// Invalid lists config entries that were ignored.
func (m *Manager) Invalid() []string {
	return slices.Clone(m.invalid)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// bucket places a user in [0,100) independently per flag so one user is not
// in every rollout at once.
func bucket(name string, userID uint) int {
	h := fnv.New32a()
	h.Write([]byte(name))
	h.Write(binary.BigEndian.AppendUint64(nil, uint64(userID)))
	return int(h.Sum32() % 100)
}
