package notify

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/normalize/internal/config"
)

func TestNewWithoutURLIsNop(t *testing.T) {
	p, err := New(config.EventsConfig{Subject: "normalize.runs"})
	require.NoError(t, err)
	assert.IsType(t, Nop{}, p)
	assert.NoError(t, p.Publish(t.Context(), RunEvent{RunID: "x"}))
	assert.NoError(t, p.Close())
}

func TestNATSPublisherRequiresSubject(t *testing.T) {
	_, err := NewNATSPublisher("nats://127.0.0.1:4222", "")
	require.Error(t, err)
}

func TestNATSPublisherConnectFailure(t *testing.T) {
	// Port 1 is never a NATS server.
	_, err := NewNATSPublisher("nats://127.0.0.1:1", "normalize.runs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to NATS")
}

func TestRunEventJSON(t *testing.T) {
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	ev := RunEvent{
		RunID:    "r1",
		Goal:     "test",
		Dir:      "/src",
		Trigger:  "watch",
		Outcome:  "failed",
		Started:  at,
		Finished: at.Add(time.Second),
		Counts:   map[string]int{"ran": 2, "failed": 1},
		Failure:  &Failure{Target: "build/tool.sh.tested", Message: "example 1 mismatch"},
	}
	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, "r1", fields["run_id"])
	assert.Equal(t, "2025-01-02T03:04:05Z", fields["started"])
	assert.Equal(t, "build/tool.sh.tested", fields["failure"].(map[string]any)["target"])

	ev.Failure = nil
	ev.Counts = nil
	data, err = json.Marshal(ev)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "failure")
	assert.NotContains(t, string(data), "counts")
}
