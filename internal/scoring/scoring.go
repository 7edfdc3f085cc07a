// Package scoring derives a profile from a finished answer set. It is
// pure and deterministic: the same answer map always yields the same
// scores, insights and actions, which keeps the completion flow safe
// to retry.
package scoring

import (
	"fmt"
	"strings"

	"github.com/snapshotlabs/snapshot-api/internal/domain"
)

// neutralContribution is added for answers that carry no numeric value
const neutralContribution = 5

// pillarOrder fixes iteration order so derivation is deterministic
var pillarOrder = []string{
	domain.PillarCareer,
	domain.PillarFinances,
	domain.PillarHealth,
	domain.PillarConnections,
}

// pillarMatchers attribute a question id to a pillar by substring
var pillarMatchers = map[string][]string{
	domain.PillarCareer:      {"career"},
	domain.PillarFinances:    {"financial", "finance"},
	domain.PillarHealth:      {"health"},
	domain.PillarConnections: {"connections"},
}

// Materialize derives a profile from an answer map. The returned
// profile has no ID or timestamps; the caller assigns those.
func Materialize(answers map[string]any) *domain.Profile {
	scores := Scores(answers)
	return &domain.Profile{
		Scores:   scores,
		Insights: insights(scores),
		Actions:  actions(scores),
	}
}

// Scores aggregates answers per pillar. Numeric answers add their
// value; any other answer type adds a neutral default.
func Scores(answers map[string]any) map[string]float64 {
	scores := make(map[string]float64, len(pillarOrder))
	for _, pillar := range pillarOrder {
		scores[pillar] = 0
	}

	for questionID, value := range answers {
		pillar, ok := pillarFor(questionID)
		if !ok {
			continue
		}
		scores[pillar] += contribution(value)
	}
	return scores
}

func pillarFor(questionID string) (string, bool) {
	id := strings.ToLower(questionID)
	for _, pillar := range pillarOrder {
		for _, needle := range pillarMatchers[pillar] {
			if strings.Contains(id, needle) {
				return pillar, true
			}
		}
	}
	return "", false
}

func contribution(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return neutralContribution
}

func insights(scores map[string]float64) []domain.Insight {
	strongest, weakest := extremes(scores)

	out := []domain.Insight{
		{
			Title:       fmt.Sprintf("%s Focus", strongest),
			Description: fmt.Sprintf("Your responses show a strong foundation in %s. Keep building on what already works.", strings.ToLower(strongest)),
		},
		{
			Title:       "Growth Mindset",
			Description: "Your answers indicate a forward-thinking approach to personal development.",
		},
	}
	if weakest != strongest {
		out = append(out, domain.Insight{
			Title:       fmt.Sprintf("%s Opportunity", weakest),
			Description: fmt.Sprintf("%s scored lowest across your pillars. Small consistent steps here will move the needle most.", weakest),
		})
	}
	return out
}

func actions(scores map[string]float64) []domain.Action {
	_, weakest := extremes(scores)

	out := []domain.Action{
		{
			Title:       "Weekly Career Planning",
			Description: "Set aside 30 minutes each week to plan your career goals.",
		},
		{
			Title:       "Health Check-in",
			Description: "Schedule regular health and wellness check-ins with yourself.",
		},
	}
	if weakest != "" {
		out = append(out, domain.Action{
			Title:       fmt.Sprintf("%s Kickstart", weakest),
			Description: fmt.Sprintf("Pick one small %s habit this week and track it daily.", strings.ToLower(weakest)),
		})
	}
	return out
}

// extremes returns the strongest and weakest pillar, breaking ties by
// the fixed pillar order.
func extremes(scores map[string]float64) (strongest, weakest string) {
	for _, pillar := range pillarOrder {
		score := scores[pillar]
		if strongest == "" || score > scores[strongest] {
			strongest = pillar
		}
		if weakest == "" || score < scores[weakest] {
			weakest = pillar
		}
	}
	return strongest, weakest
}
