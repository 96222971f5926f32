// Package species classifies detection labels into wild/non-wild verdicts
// and confidence-derived severity tiers, and carries the per-species safety
// guidance used when formatting alerts.
//
// All confidence values in this package are fractions in [0,1]. Converting
// detector output to the percentage stored on detection records is the
// ingestion boundary's job, not this package's.
package species

import (
	"fmt"
	"strings"
)

// Severity is a confidence-derived triage tier. It is independent of
// whether a detection is alertable.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Verdict is the outcome of classifying a single detection candidate.
type Verdict struct {
	Wild     bool
	Severity Severity
}

// Message is a formatted alert message for a classified detection.
type Message struct {
	Title    string
	Body     string
	Severity Severity
}

// Config is the immutable policy table injected at construction.
type Config struct {
	// WildSpecies are the labels treated as wild and alertable,
	// matched case-insensitively.
	WildSpecies []string

	// AlertThreshold is the minimum confidence for a wild detection
	// to be alertable.
	AlertThreshold float64

	// Severity tier lower bounds, evaluated in descending order.
	CriticalAt float64
	HighAt     float64
	MediumAt   float64

	// Recommendations maps a species to its safety guidance. Species
	// without an entry fall back to generic guidance.
	Recommendations map[string][]string
}

// DefaultConfig returns the monitored-species policy shipped with the
// service.
func DefaultConfig() Config {
	return Config{
		WildSpecies:    []string{"leopard", "tiger", "lion", "cheetah"},
		AlertThreshold: 0.5,
		CriticalAt:     0.85,
		HighAt:         0.70,
		MediumAt:       0.55,
		Recommendations: map[string][]string{
			"leopard": {
				"Do not run - back away slowly while facing the animal",
				"Make yourself appear larger by raising arms",
				"Make loud noises to scare it away",
				"Never turn your back or crouch down",
				"Seek shelter in a building or vehicle if available",
			},
			"tiger": {
				"Remain calm and do not run",
				"Face the tiger and back away slowly",
				"Make yourself appear large",
				"Shout loudly and make noise",
				"Never approach a tiger, even if it appears injured",
			},
			"lion": {
				"Stand your ground and make eye contact",
				"Make yourself appear larger",
				"Shout and wave your arms",
				"Back away slowly without turning",
				"Climb a tree if possible and safe",
			},
			"cheetah": {
				"Stand still and face the cheetah",
				"Make yourself appear large",
				"Shout and make loud noises",
				"Do not run - they chase prey that runs",
				"Back away slowly",
			},
			"elephant": {
				"Keep at least 50 meters distance",
				"Do not make sudden movements",
				"Move away quietly and slowly",
				"Never approach a mother with calves",
				"Seek shelter behind solid structures",
			},
		},
	}
}

var genericRecommendations = []string{
	"Maintain safe distance from the animal",
	"Do not approach or provoke",
	"Contact wildlife authorities",
	"Alert others in the area",
	"Stay calm and move away slowly",
}

// Classifier applies a fixed species policy. Stateless aside from the
// configuration captured at construction.
type Classifier struct {
	wild            map[string]struct{}
	threshold       float64
	criticalAt      float64
	highAt          float64
	mediumAt        float64
	recommendations map[string][]string
}

// New builds a Classifier from cfg. Zero thresholds fall back to the
// defaults so a partially filled Config stays usable.
func New(cfg Config) *Classifier {
	def := DefaultConfig()
	if len(cfg.WildSpecies) == 0 {
		cfg.WildSpecies = def.WildSpecies
	}
	if cfg.AlertThreshold == 0 {
		cfg.AlertThreshold = def.AlertThreshold
	}
	if cfg.CriticalAt == 0 {
		cfg.CriticalAt = def.CriticalAt
	}
	if cfg.HighAt == 0 {
		cfg.HighAt = def.HighAt
	}
	if cfg.MediumAt == 0 {
		cfg.MediumAt = def.MediumAt
	}
	if cfg.Recommendations == nil {
		cfg.Recommendations = def.Recommendations
	}

	wild := make(map[string]struct{}, len(cfg.WildSpecies))
	for _, s := range cfg.WildSpecies {
		wild[strings.ToLower(s)] = struct{}{}
	}

	recs := make(map[string][]string, len(cfg.Recommendations))
	for k, v := range cfg.Recommendations {
		recs[strings.ToLower(k)] = v
	}

	return &Classifier{
		wild:            wild,
		threshold:       cfg.AlertThreshold,
		criticalAt:      cfg.CriticalAt,
		highAt:          cfg.HighAt,
		mediumAt:        cfg.MediumAt,
		recommendations: recs,
	}
}

// Classify maps a raw detection label and confidence to a verdict.
// A detection is wild-and-alertable iff its label is in the configured set
// and its confidence meets the alert threshold. The severity tier is
// computed for any confidence the caller supplies.
func (c *Classifier) Classify(label string, confidence float64) Verdict {
	return Verdict{
		Wild:     c.Alertable(label, confidence),
		Severity: c.SeverityFor(confidence),
	}
}

// Alertable reports whether a detection should produce alerts.
func (c *Classifier) Alertable(label string, confidence float64) bool {
	_, ok := c.wild[strings.ToLower(label)]
	return ok && confidence >= c.threshold
}

// SeverityFor maps a confidence to its severity tier.
func (c *Classifier) SeverityFor(confidence float64) Severity {
	switch {
	case confidence >= c.criticalAt:
		return SeverityCritical
	case confidence >= c.highAt:
		return SeverityHigh
	case confidence >= c.mediumAt:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Recommendations returns the safety guidance for a species, falling back
// to generic guidance for species outside the configured set.
func (c *Classifier) Recommendations(label string) []string {
	if recs, ok := c.recommendations[strings.ToLower(label)]; ok {
		return recs
	}
	return genericRecommendations
}

// MessageFor builds the formatted alert message for a detection, keyed by
// its severity tier.
func (c *Classifier) MessageFor(label string, confidence float64) Message {
	sev := c.SeverityFor(confidence)
	name := strings.ToUpper(label)
	pct := confidence * 100

	switch sev {
	case SeverityCritical:
		return Message{
			Title:    "CRITICAL WILDLIFE ALERT",
			Body:     fmt.Sprintf("IMMEDIATE ACTION REQUIRED: %s detected with very high confidence (%.1f%%). Please evacuate the area and contact authorities immediately.", name, pct),
			Severity: sev,
		}
	case SeverityHigh:
		return Message{
			Title:    "HIGH PRIORITY WILDLIFE ALERT",
			Body:     fmt.Sprintf("WARNING: %s detected with high confidence (%.1f%%). Exercise extreme caution and maintain safe distance.", name, pct),
			Severity: sev,
		}
	case SeverityMedium:
		return Message{
			Title:    "WILDLIFE ALERT",
			Body:     fmt.Sprintf("CAUTION: %s detected (%.1f%% confidence). Be alert and aware of your surroundings.", name, pct),
			Severity: sev,
		}
	default:
		return Message{
			Title:    "Wildlife Activity",
			Body:     fmt.Sprintf("Possible %s sighting detected (%.1f%% confidence). Stay vigilant.", name, pct),
			Severity: sev,
		}
	}
}
