package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/support.txt
	supportRaw string

	//go:embed template/order.txt
	orderRaw string

	//go:embed template/billing.txt
	billingRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Support string
	Order   string
	Billing string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Support: strings.TrimSpace(supportRaw),
		Order:   strings.TrimSpace(orderRaw),
		Billing: strings.TrimSpace(billingRaw),
	}
}
