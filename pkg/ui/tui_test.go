package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	assistantdomain "github.com/fd1az/gas-genie/business/assistant/domain"
	gasdomain "github.com/fd1az/gas-genie/business/gas/domain"
)

type fakeAssistant struct {
	fragments []assistantdomain.Fragment
	queries   []string
}

func (f *fakeAssistant) Assist(ctx context.Context, query, queryID string) <-chan assistantdomain.Fragment {
	f.queries = append(f.queries, query)
	out := make(chan assistantdomain.Fragment, len(f.fragments))
	for _, frag := range f.fragments {
		out <- frag
	}
	close(out)
	return out
}

type fakeGas struct {
	rec *gasdomain.Recommendation
	err error
}

func (f *fakeGas) FetchAndRecommend(ctx context.Context) (*gasdomain.Recommendation, error) {
	return f.rec, f.err
}

// drive feeds cmd results back into the model until the stream ends.
func drive(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for i := 0; cmd != nil && i < 100; i++ {
		msg := cmd()
		next, nextCmd := m.Update(msg)
		m = next.(Model)
		if _, ok := msg.(StreamEndMsg); ok {
			return m
		}
		cmd = nextCmd
	}
	return m
}

func chatModel(a Assistant, g GasProvider) Model {
	m := New(Config{Mode: "local", GasSource: "etherscan"}, a, g)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(Model)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	return next.(Model)
}

func TestModel_WelcomeSkippedByKey(t *testing.T) {
	m := chatModel(&fakeAssistant{}, nil)
	if m.phase != PhaseChat {
		t.Fatalf("phase = %v, want %v", m.phase, PhaseChat)
	}
	if m.input.Value() != "" {
		t.Errorf("skip key leaked into input: %q", m.input.Value())
	}
}

func TestModel_SubmitStreamsAnswer(t *testing.T) {
	a := &fakeAssistant{fragments: []assistantdomain.Fragment{
		assistantdomain.TextFragment("Gas is "),
		assistantdomain.TextFragment("low."),
	}}
	m := chatModel(a, nil)

	m, cmd := m.submit("what is the gas price?")
	if !m.streaming {
		t.Fatal("expected streaming after submit")
	}
	m = drive(t, m, cmd)

	if m.streaming {
		t.Error("stream should be finished")
	}
	turns := m.transcript.Turns()
	if len(turns) != 1 {
		t.Fatalf("turns = %d, want 1", len(turns))
	}
	if turns[0].Answer != "Gas is low." || turns[0].Failed || !turns[0].Done {
		t.Errorf("turn = %+v", turns[0])
	}
	if got := m.stats.Stats(); got.Queries != 1 || got.Errors != 0 {
		t.Errorf("stats = %+v", got)
	}
	if len(a.queries) != 1 || a.queries[0] != "what is the gas price?" {
		t.Errorf("queries = %v", a.queries)
	}
}

func TestModel_ErrorFragmentMarksTurn(t *testing.T) {
	a := &fakeAssistant{fragments: []assistantdomain.Fragment{
		assistantdomain.ErrorFragment(errors.New("timeout"), "Request timed out. Please try again."),
	}}
	m := chatModel(a, nil)

	m, cmd := m.submit("hello")
	m = drive(t, m, cmd)

	turn := m.transcript.Turns()[0]
	if !turn.Failed || !strings.HasPrefix(turn.Answer, assistantdomain.ErrorPrefix) {
		t.Errorf("turn = %+v", turn)
	}
	if m.stats.Stats().Errors != 1 {
		t.Errorf("errors = %d, want 1", m.stats.Stats().Errors)
	}
}

func TestModel_EnterIgnoredWhileStreaming(t *testing.T) {
	m := chatModel(&fakeAssistant{}, nil)
	m, _ = m.submit("first")

	m.input.SetValue("second")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)

	if cmd != nil {
		t.Error("expected no command while streaming")
	}
	if len(m.transcript.Turns()) != 1 {
		t.Errorf("turns = %d, want 1", len(m.transcript.Turns()))
	}
}

func TestModel_GasMsg(t *testing.T) {
	rec := &gasdomain.Recommendation{
		RecommendedPrice: 21.5,
		Suggestion:       gasdomain.SuggestionSend,
		CurrentPrices:    gasdomain.Observation{Safe: 20, Propose: 21, Fast: 23},
		PriceTrend:       gasdomain.TrendResult{Trend: gasdomain.TrendStable},
	}
	m := chatModel(&fakeAssistant{}, &fakeGas{rec: rec})

	msg := fetchGasCmd(&fakeGas{rec: rec})()
	next, _ := m.Update(msg)
	m = next.(Model)

	if m.gasPanel.Recommendation() != rec {
		t.Error("gas panel not updated")
	}
	if view := m.View(); !strings.Contains(view, "21.50 Gwei") {
		t.Errorf("view missing recommended price:\n%s", view)
	}

	next, _ = m.Update(GasMsg{Err: errors.New("etherscan down")})
	m = next.(Model)
	if m.gasPanel.Recommendation() != rec {
		t.Error("failed refresh must keep the last recommendation")
	}
	if view := m.View(); !strings.Contains(view, "etherscan down") {
		t.Errorf("view missing refresh error:\n%s", view)
	}
}

func TestModel_QuitCancelsStream(t *testing.T) {
	m := chatModel(&fakeAssistant{}, nil)
	m, _ = m.submit("hello")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = next.(Model)

	if !m.quitting {
		t.Error("expected quitting")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}
