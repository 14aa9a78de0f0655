package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fd1az/gas-genie/business/assistant/domain"
	gasdomain "github.com/fd1az/gas-genie/business/gas/domain"
	"github.com/fd1az/gas-genie/internal/apperror"
)

// mockLogger implements logger.LoggerInterface for testing.
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

type fakeGas struct {
	rec   *gasdomain.Recommendation
	err   error
	calls int
}

func (f *fakeGas) FetchAndRecommend(ctx context.Context) (*gasdomain.Recommendation, error) {
	f.calls++
	return f.rec, f.err
}

// fakeModel replays fragments and records the last prompt and options.
type fakeModel struct {
	fragments []domain.Fragment
	prompt    string
	opts      domain.ModelOptions
}

func (f *fakeModel) Stream(ctx context.Context, prompt string, opts domain.ModelOptions) <-chan domain.Fragment {
	f.prompt = prompt
	f.opts = opts
	out := make(chan domain.Fragment)
	go func() {
		defer close(out)
		for _, frag := range f.fragments {
			select {
			case out <- frag:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func sampleRecommendation() *gasdomain.Recommendation {
	return &gasdomain.Recommendation{
		RecommendedPrice: 50,
		Confidence:       0.9,
		Suggestion:       gasdomain.SuggestionMonitor,
		CurrentPrices:    gasdomain.Observation{Safe: 20, Propose: 30, Fast: 50, SuggestedBaseFee: 19, GasUsedRatio: []float64{0.95}},
		PriceTrend:       gasdomain.TrendResult{Trend: gasdomain.TrendStable},
		NetworkMetrics:   gasdomain.NetworkMetrics{BaseFee: 19, GasUsedRatio: 0.95, CongestionLevel: gasdomain.CongestionHigh},
	}
}

func newAssistant(t *testing.T, gas *fakeGas, model *fakeModel) *Assistant {
	t.Helper()
	a, err := NewAssistant(gas, model, domain.DefaultPresets(0), &mockLogger{})
	if err != nil {
		t.Fatalf("NewAssistant: %v", err)
	}
	return a
}

func collect(ch <-chan domain.Fragment) []domain.Fragment {
	var out []domain.Fragment
	for f := range ch {
		out = append(out, f)
	}
	return out
}

func TestAssistant_Assist_GasQuery(t *testing.T) {
	gas := &fakeGas{rec: sampleRecommendation()}
	model := &fakeModel{fragments: []domain.Fragment{
		domain.TextFragment("Gas is "),
		domain.TextFragment(""),
		domain.TextFragment("high right now."),
	}}
	a := newAssistant(t, gas, model)

	got := collect(a.Assist(context.Background(), "Should I send my transaction now?", "q1"))

	if len(got) != 2 || got[0].Content != "Gas is " || got[1].Content != "high right now." {
		t.Errorf("fragments = %+v (empty ones must be dropped)", got)
	}
	if gas.calls != 1 {
		t.Errorf("gas calls = %d, want 1", gas.calls)
	}
	if !strings.Contains(model.prompt, "- Congestion Level: high") || !strings.Contains(model.prompt, "User query: Should I send my transaction now?") {
		t.Errorf("unexpected prompt:\n%s", model.prompt)
	}
	if model.opts.MaxTokens != 2048 {
		t.Errorf("max_tokens = %d, want standard preset", model.opts.MaxTokens)
	}
}

func TestAssistant_Assist_GeneralQuerySkipsGasData(t *testing.T) {
	gas := &fakeGas{rec: sampleRecommendation()}
	model := &fakeModel{fragments: []domain.Fragment{domain.TextFragment("Hello!")}}
	a := newAssistant(t, gas, model)

	got := collect(a.Assist(context.Background(), "hello", "q2"))

	if len(got) != 1 || got[0].Content != "Hello!" {
		t.Errorf("fragments = %+v", got)
	}
	if gas.calls != 0 {
		t.Errorf("gas data fetched for a casual query")
	}
	if model.prompt != domain.GeneralPrompt("hello") {
		t.Errorf("prompt = %q", model.prompt)
	}
	if model.opts.MaxTokens != 256 {
		t.Errorf("max_tokens = %d, want casual preset", model.opts.MaxTokens)
	}
}

func TestAssistant_Assist_GasQueryWithGreetingUsesCasualPreset(t *testing.T) {
	gas := &fakeGas{rec: sampleRecommendation()}
	model := &fakeModel{}
	a := newAssistant(t, gas, model)

	collect(a.Assist(context.Background(), "hello, what is the gas price", "q3"))

	if gas.calls != 1 {
		t.Error("gas query should fetch gas data")
	}
	if model.opts.MaxTokens != 256 {
		t.Errorf("max_tokens = %d, want casual preset", model.opts.MaxTokens)
	}
}

func TestAssistant_Assist_GasFailureYieldsSingleErrorFragment(t *testing.T) {
	upstream := errors.New("HTTP 503")
	gas := &fakeGas{err: apperror.New(apperror.CodeGasFetchFailed, apperror.WithCause(upstream), apperror.WithContext("etherscan"))}
	model := &fakeModel{fragments: []domain.Fragment{domain.TextFragment("never")}}
	a := newAssistant(t, gas, model)

	got := collect(a.Assist(context.Background(), "gas price?", "q4"))

	if len(got) != 1 {
		t.Fatalf("fragments = %+v, want exactly one", got)
	}
	want := "Error: Failed to fetch gas prices: etherscan (HTTP 503)"
	if got[0].Content != want || !got[0].IsError() {
		t.Errorf("fragment = %+v, want %q", got[0], want)
	}
	if model.prompt != "" {
		t.Error("model must not be called when gas data fails")
	}
}

func TestAssistant_Assist_RelaysModelError(t *testing.T) {
	streamErr := &domain.ModelStreamError{Kind: domain.KindTimeout}
	model := &fakeModel{fragments: []domain.Fragment{
		domain.TextFragment("partial "),
		streamErr.Fragment(),
	}}
	a := newAssistant(t, &fakeGas{}, model)

	got := collect(a.Assist(context.Background(), "Explain rollups", "q5"))

	if len(got) != 2 || got[1].Content != "Error: Request timed out. Please try again." {
		t.Errorf("fragments = %+v", got)
	}
}

func TestAssistant_Assist_StopsOnCancel(t *testing.T) {
	model := &fakeModel{fragments: []domain.Fragment{
		domain.TextFragment("one "), domain.TextFragment("two "), domain.TextFragment("three"),
	}}
	a := newAssistant(t, &fakeGas{}, model)

	ctx, cancel := context.WithCancel(context.Background())
	ch := a.Assist(ctx, "Explain rollups", "q6")
	<-ch
	cancel()

	done := make(chan struct{})
	go func() {
		for range ch {
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestAssistant_GetGasData(t *testing.T) {
	rec := sampleRecommendation()
	a := newAssistant(t, &fakeGas{rec: rec}, &fakeModel{})

	got, err := a.GetGasData(context.Background())
	if err != nil || got != rec {
		t.Errorf("got %v, %v", got, err)
	}
}

func TestAssistant_Query(t *testing.T) {
	model := &fakeModel{fragments: []domain.Fragment{domain.TextFragment("Send "), domain.TextFragment("now.")}}
	a := newAssistant(t, &fakeGas{rec: sampleRecommendation()}, model)

	if got := a.Query(context.Background(), "cheap?"); got != "Send now." {
		t.Errorf("Query = %q", got)
	}
	if !strings.HasPrefix(model.prompt, "Current gas prices:\n- Safe: 20.0 Gwei") {
		t.Errorf("prompt = %q", model.prompt)
	}

	failing := newAssistant(t, &fakeGas{err: errors.New("boom")}, &fakeModel{})
	if got := failing.Query(context.Background(), "cheap?"); got != "Error: boom" {
		t.Errorf("Query = %q", got)
	}
}

func TestNewAssistant_RejectsInvalidPresets(t *testing.T) {
	presets := domain.DefaultPresets(0)
	presets.Casual.TopP = 2

	_, err := NewAssistant(&fakeGas{}, &fakeModel{}, presets, &mockLogger{})
	if apperror.GetCode(err) != apperror.CodeConfigurationError {
		t.Errorf("err = %v, want configuration error", err)
	}
}
