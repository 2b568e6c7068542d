// Package router classifies inbound messages into agent identities using
// deterministic keyword scoring. No model calls, no randomness.
package router

import (
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/wiradal/deskmate/agent/contract"
)

// priority resolves score ties: domain-specific agents rank above the
// general-support agent. The first entry wins.
var priority = []contractx.AgentType{
	contractx.AgentTypeOrder,
	contractx.AgentTypeBilling,
	contractx.AgentTypeSupport,
}

// keywords maps each agent to its phrase list. Phrases score by word count,
// so longer, more specific phrases outweigh single words. Matching is by
// substring: a phrase and a longer phrase containing it both count toward the
// same agent, which is intentional additive scoring.
var keywords = map[contractx.AgentType][]string{
	contractx.AgentTypeOrder: {
		"order",
		"my order",
		"track order",
		"tracking",
		"delivery",
		"shipping",
		"where is my",
		"when will my",
		"order status",
		"modify order",
		"change order",
		"cancel order",
	},
	contractx.AgentTypeBilling: {
		"billing",
		"payment",
		"invoice",
		"refund",
		"charge",
		"charged",
		"subscription",
		"card",
		"credit card",
		"debit card",
		"payment failed",
		"pricing",
		"cost",
		"fee",
		"coupon",
		"discount",
	},
	contractx.AgentTypeSupport: {
		"support",
		"faq",
		"question",
		"issue",
		"problem",
		"troubleshoot",
		"bug",
		"error",
		"not working",
		"how do i",
		"how to",
		"guide",
		"tutorial",
	},
}

// Router is a pure function of the static keyword tables.
type Router struct{}

func New() *Router {
	return &Router{}
}

var _ contractx.IntentRouter = (*Router)(nil)

// Classify scores the message against every agent's phrase list and returns
// the winner. A zero maximum falls back to the support agent.
func (r *Router) Classify(text string) contractx.AgentType {
	lowered := strings.ToLower(text)

	scores := map[contractx.AgentType]int{
		contractx.AgentTypeSupport: 0,
		contractx.AgentTypeOrder:   0,
		contractx.AgentTypeBilling: 0,
	}

	for agentType, phrases := range keywords {
		for _, phrase := range phrases {
			if strings.Contains(lowered, phrase) {
				scores[agentType] += len(strings.Fields(phrase))
			}
		}
	}

	maxScore := 0
	for _, score := range scores {
		if score > maxScore {
			maxScore = score
		}
	}

	if maxScore == 0 {
		return contractx.AgentTypeSupport
	}

	for _, preferred := range priority {
		if scores[preferred] == maxScore {
			log.Debug().
				Str("agent", string(preferred)).
				Int("score", maxScore).
				Msg("classified intent")
			return preferred
		}
	}

	return contractx.AgentTypeSupport
}
