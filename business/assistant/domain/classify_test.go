package domain

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want QueryKind
	}{
		{"What's the gas price right now?", QueryGasRelated},
		{"Should I SEND my transaction?", QueryGasRelated},
		{"is the network congested", QueryGasRelated},
		{"hello there", QueryCasual},
		{"Thank you!", QueryCasual},
		{"what can you do", QueryCasual},
		{"Explain zk rollups", QueryGeneral},
		{"", QueryGeneral},
		// gas keywords take precedence
		{"hello, what is the gas price", QueryGasRelated},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := Classify(tt.text); got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", tt.text, got, tt.want)
			}
		})
	}
}

// The two checks run independently: a gas query can still pick the casual
// preset when its text contains a greeting.
func TestClassifiersAreIndependent(t *testing.T) {
	text := "hello, what is the gas price"

	if !IsGasQuery(text) {
		t.Error("expected gas query")
	}
	if !IsCasualConversation(text) {
		t.Error("expected casual match as well")
	}
}

func TestIsCasualConversation_SubstringMatch(t *testing.T) {
	// "hi" inside "this" counts.
	if !IsCasualConversation("Explain this") {
		t.Error("substring match expected")
	}
	if IsCasualConversation("Explain zk rollups") {
		t.Error("unexpected casual match")
	}
}
