package prompt

import (
	"strings"
	"testing"
)

func TestLoadPromptSet(t *testing.T) {
	t.Parallel()

	set := LoadPromptSet()

	for name, content := range map[string]string{
		"support": set.Support,
		"order":   set.Order,
		"billing": set.Billing,
	} {
		if content == "" {
			t.Fatalf("%s prompt is empty", name)
		}
		if content != strings.TrimSpace(content) {
			t.Fatalf("%s prompt has surrounding whitespace", name)
		}
	}
}
