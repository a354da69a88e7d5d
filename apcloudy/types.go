package apcloudy

import (
	"strings"
	"time"
)

// JobState represents the execution state of a job. The platform owns all
// state transitions; the client only reports the last observed value.
// Unknown states decode without error so future platform states never break
// parsing.
type JobState string

const (
	// JobStateScheduled indicates the job is queued but not yet running.
	JobStateScheduled JobState = "scheduled"
	// JobStateRunning indicates the job is currently executing.
	JobStateRunning JobState = "running"
	// JobStateCompleted indicates the job finished successfully.
	JobStateCompleted JobState = "completed"
	// JobStateDeleted indicates the job was deleted.
	JobStateDeleted JobState = "deleted"
)

// Observed in API responses but not part of the documented state list.
const jobStateFailed JobState = "failed"

// Known reports whether the state is one of the documented values.
func (s JobState) Known() bool {
	switch s {
	case JobStateScheduled, JobStateRunning, JobStateCompleted, JobStateDeleted:
		return true
	}
	return false
}

// Terminal reports whether the job has reached a final state.
func (s JobState) Terminal() bool {
	switch s {
	case JobStateCompleted, JobStateDeleted, jobStateFailed:
		return true
	}
	return false
}

// Timestamp wraps time.Time with lenient JSON decoding: null, empty and
// malformed values decode to the zero time instead of failing, matching the
// tolerance of the platform's own clients.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	// The API emits ISO 8601 with either a Z suffix or a numeric offset.
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		parsed, err = time.Parse("2006-01-02T15:04:05", s)
	}
	if err != nil {
		t.Time = time.Time{}
		return nil
	}
	t.Time = parsed
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Format(time.RFC3339) + `"`), nil
}

// Project represents an APCloudy project. The client holds no authoritative
// copy, only the last fetched snapshot.
type Project struct {
	ID          string         `json:"project_id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	OrgName     string         `json:"organization_name"`
	CreatedAt   Timestamp      `json:"created_at"`
	SpiderCount int            `json:"spider_count"`
	JobCount    int            `json:"job_count"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Spider represents a spider deployed to a project.
type Spider struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	ProjectID   string         `json:"project_id"`
	Settings    map[string]any `json:"settings"`
	Tags        []string       `json:"tags"`
}

// Job represents a single spider run.
type Job struct {
	ID           string         `json:"job_id"`
	SpiderName   string         `json:"spider_name"`
	State        JobState       `json:"status"`
	ProjectID    string         `json:"project_id"`
	CreatedAt    Timestamp      `json:"created_at"`
	StartedAt    Timestamp      `json:"started_at"`
	FinishedAt   Timestamp      `json:"finished_at"`
	ItemsScraped int            `json:"items_scraped"`
	RequestsMade int            `json:"requests_made"`
	Args         map[string]any `json:"job_args"`
	Units        int            `json:"units"`
	Priority     int            `json:"priority"`
	Tags         []string       `json:"tags"`
	LogsURL      string         `json:"logs_url,omitempty"`
	ItemsURL     string         `json:"items_url,omitempty"`
}

// Finished reports whether the job has reached a terminal state.
func (j *Job) Finished() bool {
	return j.State.Terminal()
}

// Duration returns how long the job ran, or zero if it has not both
// started and finished.
func (j *Job) Duration() time.Duration {
	if j.StartedAt.IsZero() || j.FinishedAt.IsZero() {
		return 0
	}
	return j.FinishedAt.Sub(j.StartedAt.Time)
}

// LogEntry is a single line from a job's log stream.
type LogEntry struct {
	Time    Timestamp `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}

// Item is one scraped record from a job. Field names and values are
// entirely spider-defined.
type Item map[string]any
