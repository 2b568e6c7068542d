// Package registry holds the static agent catalog: one definition per agent
// identity, constructed at process start and never mutated.
package registry

import (
	contractx "github.com/wiradal/deskmate/agent/contract"
	promptx "github.com/wiradal/deskmate/agent/prompt"
	toolx "github.com/wiradal/deskmate/agent/tool"
)

type Registry struct {
	definitions map[contractx.AgentType]contractx.AgentDefinition
	ordered     []contractx.AgentType
}

var _ contractx.AgentCatalog = (*Registry)(nil)

func New() *Registry {
	prompts := promptx.LoadPromptSet()

	definitions := map[contractx.AgentType]contractx.AgentDefinition{
		contractx.AgentTypeSupport: {
			Type:         contractx.AgentTypeSupport,
			Name:         "Support Agent",
			Description:  "Handles general support inquiries, FAQs, and troubleshooting questions",
			SystemPrompt: prompts.Support,
			Tools:        toolx.ForAgent(contractx.AgentTypeSupport),
		},
		contractx.AgentTypeOrder: {
			Type:         contractx.AgentTypeOrder,
			Name:         "Order Agent",
			Description:  "Handles order status, tracking, modifications, and cancellations",
			SystemPrompt: prompts.Order,
			Tools:        toolx.ForAgent(contractx.AgentTypeOrder),
		},
		contractx.AgentTypeBilling: {
			Type:         contractx.AgentTypeBilling,
			Name:         "Billing Agent",
			Description:  "Handles payment issues, refunds, invoices, and subscription queries",
			SystemPrompt: prompts.Billing,
			Tools:        toolx.ForAgent(contractx.AgentTypeBilling),
		},
	}

	return &Registry{
		definitions: definitions,
		ordered: []contractx.AgentType{
			contractx.AgentTypeSupport,
			contractx.AgentTypeOrder,
			contractx.AgentTypeBilling,
		},
	}
}

// Select returns the definition for the given identity. Unknown identities
// fall back to the support agent so selection never fails.
func (r *Registry) Select(agentType contractx.AgentType) contractx.AgentDefinition {
	if def, ok := r.definitions[agentType]; ok {
		return def
	}
	return r.definitions[contractx.AgentTypeSupport]
}

// Contains reports whether the identity is a registered agent.
func (r *Registry) Contains(agentType contractx.AgentType) bool {
	_, ok := r.definitions[agentType]
	return ok
}

// All returns every definition in registration order.
func (r *Registry) All() []contractx.AgentDefinition {
	out := make([]contractx.AgentDefinition, 0, len(r.ordered))
	for _, t := range r.ordered {
		out = append(out, r.definitions[t])
	}
	return out
}
