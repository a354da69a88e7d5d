package apcloudy

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStateKnown(t *testing.T) {
	tests := []struct {
		state JobState
		known bool
	}{
		{JobStateScheduled, true},
		{JobStateRunning, true},
		{JobStateCompleted, true},
		{JobStateDeleted, true},
		{JobState("failed"), false},
		{JobState("paused"), false},
		{JobState(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			assert.Equal(t, tt.known, tt.state.Known())
		})
	}
}

func TestJobStateTerminal(t *testing.T) {
	tests := []struct {
		state    JobState
		terminal bool
	}{
		{JobStateScheduled, false},
		{JobStateRunning, false},
		{JobStateCompleted, true},
		{JobStateDeleted, true},
		// Observed in the wild but not part of the documented list.
		{JobState("failed"), true},
		{JobState("paused"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.state.Terminal())
		})
	}
}

func TestTimestampUnmarshal(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantZero bool
		wantYear int
	}{
		{name: "RFC3339 with Z", input: `"2024-03-01T12:00:00Z"`, wantYear: 2024},
		{name: "RFC3339 with offset", input: `"2024-03-01T12:00:00+02:00"`, wantYear: 2024},
		{name: "no zone", input: `"2024-03-01T12:00:00"`, wantYear: 2024},
		{name: "null", input: `null`, wantZero: true},
		{name: "empty string", input: `""`, wantZero: true},
		{name: "garbage", input: `"not a date"`, wantZero: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(tt.input), &ts))
			if tt.wantZero {
				assert.True(t, ts.IsZero())
				return
			}
			assert.Equal(t, tt.wantYear, ts.Year())
		})
	}
}

func TestTimestampMarshal(t *testing.T) {
	var zero Timestamp
	data, err := json.Marshal(zero)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	ts := Timestamp{Time: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	data, err = json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-01T12:00:00Z"`, string(data))
}

func TestJobDuration(t *testing.T) {
	started := Timestamp{Time: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	finished := Timestamp{Time: time.Date(2024, 3, 1, 12, 45, 0, 0, time.UTC)}

	job := Job{StartedAt: started, FinishedAt: finished}
	assert.Equal(t, 45*time.Minute, job.Duration())

	running := Job{StartedAt: started}
	assert.Zero(t, running.Duration())

	pending := Job{}
	assert.Zero(t, pending.Duration())
}

func TestJobUnmarshalTolerance(t *testing.T) {
	// A job payload with a future state and broken timestamps must still
	// decode.
	payload := `{
		"job_id": "j-1",
		"spider_name": "products",
		"status": "quarantined",
		"created_at": "garbage",
		"started_at": null,
		"job_args": {"depth": 3}
	}`

	var job Job
	require.NoError(t, json.Unmarshal([]byte(payload), &job))
	assert.Equal(t, JobState("quarantined"), job.State)
	assert.True(t, job.CreatedAt.IsZero())
	assert.True(t, job.StartedAt.IsZero())
	assert.Equal(t, float64(3), job.Args["depth"])
}

func TestProjectString(t *testing.T) {
	p := Project{ID: "p1", Name: "shop"}
	assert.Equal(t, "shop (p1)", p.String())
}
