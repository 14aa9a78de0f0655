package rest

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	assistantdomain "github.com/fd1az/gas-genie/business/assistant/domain"
)

func collect(t *testing.T, ch <-chan assistantdomain.Fragment) []assistantdomain.Fragment {
	t.Helper()
	var out []assistantdomain.Fragment
	timeout := time.After(5 * time.Second)
	for {
		select {
		case f, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, f)
		case <-timeout:
			t.Fatal("stream did not finish")
		}
	}
}

func TestRemoteAssistant_RoundTrip(t *testing.T) {
	a := &fakeAssistant{fragments: []assistantdomain.Fragment{
		assistantdomain.TextFragment("Send now, "),
		assistantdomain.TextFragment("gas is low."),
	}}
	srv := httptest.NewServer(newTestServer(t, a, &fakeGas{}).Handler())
	defer srv.Close()

	remote := NewRemoteAssistant("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/assist", &mockLogger{})
	got := collect(t, remote.Assist(context.Background(), "gas price?", "r-1"))

	require.Len(t, got, 2)
	assert.Equal(t, "Send now, ", got[0].Content)
	assert.Equal(t, "gas is low.", got[1].Content)
	assert.False(t, got[1].IsError())
	assert.Equal(t, "gas price?", a.query)
	assert.Equal(t, "r-1", a.queryID)
}

func TestRemoteAssistant_InBandError(t *testing.T) {
	a := &fakeAssistant{fragments: []assistantdomain.Fragment{
		assistantdomain.ErrorFragment(assert.AnError, "Authentication failed. Please check your API key."),
	}}
	srv := httptest.NewServer(newTestServer(t, a, &fakeGas{}).Handler())
	defer srv.Close()

	remote := NewRemoteAssistant("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/assist", &mockLogger{})
	got := collect(t, remote.Assist(context.Background(), "hi", "r-2"))

	require.Len(t, got, 1)
	assert.True(t, got[0].IsError())
	assert.Equal(t, "Error: Authentication failed. Please check your API key.", got[0].Content)
}

func TestRemoteAssistant_Unreachable(t *testing.T) {
	remote := NewRemoteAssistant("ws://localhost:59998/ws/assist", &mockLogger{})
	got := collect(t, remote.Assist(context.Background(), "hi", "r-3"))

	require.Len(t, got, 1)
	assert.True(t, got[0].IsError())
	assert.True(t, strings.HasPrefix(got[0].Content, assistantdomain.ErrorPrefix))
}

func TestEventFragment(t *testing.T) {
	assert.Equal(t, assistantdomain.TextFragment("ok"), eventFragment(MessageEvent("ok")))
	assert.True(t, eventFragment(MessageEvent("Error: Request timed out. Please try again.")).IsError())

	f := eventFragment(ErrorEvent("boom"))
	assert.True(t, f.IsError())
	assert.Equal(t, "Error: boom", f.Content)
}
