package apcloudy

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Pagination and concurrency limits for job operations.
const (
	// DefaultPageSize is the item/log page size used when none is given.
	DefaultPageSize = 100
	// MaxPageSize is the largest page the API accepts.
	MaxPageSize = 1000
	// batchConcurrency bounds concurrent requests in batch helpers.
	batchConcurrency = 10
)

// JobsService manages spider runs, their logs and their scraped items.
type JobsService struct {
	client *Client
}

// RunOptions carries the optional parameters for starting a job.
type RunOptions struct {
	// Units is the number of parallel instances to run. Zero means the
	// platform default.
	Units int
	// Args are passed through to the spider.
	Args map[string]any
	// Priority orders the job in the scheduler queue; higher runs earlier.
	Priority int
	// Tags label the job for later filtering.
	Tags []string
}

// ListJobsOptions filters a job listing.
type ListJobsOptions struct {
	// State restricts the listing to jobs in the given state.
	State JobState
	// Spider restricts the listing to runs of one spider.
	Spider string
	// Count caps the number of jobs returned (at most MaxPageSize).
	Count int
	// Offset skips jobs for pagination.
	Offset int
	// Tags restricts the listing to jobs carrying all given tags.
	Tags []string
}

// Run starts a spider and returns the created job.
func (s *JobsService) Run(ctx context.Context, projectID, spiderName string, opts RunOptions) (*Job, error) {
	if err := requireID("project id", projectID); err != nil {
		return nil, err
	}
	if err := requireID("spider name", spiderName); err != nil {
		return nil, err
	}

	units := opts.Units
	if units <= 0 {
		units = 1
	}
	args := opts.Args
	if args == nil {
		args = map[string]any{}
	}
	tags := opts.Tags
	if tags == nil {
		tags = []string{}
	}

	body := map[string]any{
		"project":  projectID,
		"spider":   spiderName,
		"units":    units,
		"job_args": args,
		"priority": opts.Priority,
		"tags":     tags,
	}

	var envelope struct {
		Job Job `json:"job"`
	}
	if err := s.client.do(ctx, http.MethodPost, "job/run", body, nil, &envelope); err != nil {
		return nil, err
	}
	s.client.logger.Info().
		Str("project_id", projectID).
		Str("spider", spiderName).
		Str("job_id", envelope.Job.ID).
		Msg("Started job")
	return &envelope.Job, nil
}

// Get fetches the last observed snapshot of a job. A job that was deleted
// becomes unfetchable: the platform answers 404 and Get returns a
// NotFoundError.
func (s *JobsService) Get(ctx context.Context, jobID string) (*Job, error) {
	if err := requireID("job id", jobID); err != nil {
		return nil, err
	}
	var job Job
	err := s.client.do(ctx, http.MethodGet, "jobs/"+jobID, nil, nil, &job)
	if err != nil {
		return nil, notFound(err, "job", jobID)
	}
	return &job, nil
}

// List returns jobs for a project, newest first, filtered by opts.
func (s *JobsService) List(ctx context.Context, projectID string, opts ListJobsOptions) ([]Job, error) {
	if err := requireID("project id", projectID); err != nil {
		return nil, err
	}

	count := opts.Count
	if count <= 0 {
		count = DefaultPageSize
	}
	if count > MaxPageSize {
		count = MaxPageSize
	}

	query := url.Values{
		"project": {projectID},
		"count":   {strconv.Itoa(count)},
		"offset":  {strconv.Itoa(opts.Offset)},
	}
	if opts.State != "" {
		query.Set("state", string(opts.State))
	}
	if opts.Spider != "" {
		query.Set("spider", opts.Spider)
	}
	if len(opts.Tags) > 0 {
		query.Set("tags", strings.Join(opts.Tags, ","))
	}

	var envelope struct {
		Jobs []Job `json:"jobs"`
	}
	if err := s.client.do(ctx, http.MethodGet, "jobs/list", nil, query, &envelope); err != nil {
		return nil, err
	}
	return envelope.Jobs, nil
}

// Cancel stops a scheduled or running job.
func (s *JobsService) Cancel(ctx context.Context, jobID string) error {
	if err := requireID("job id", jobID); err != nil {
		return err
	}
	err := s.client.do(ctx, http.MethodPost, "jobs/"+jobID+"/cancel", nil, nil, nil)
	if err != nil {
		return notFound(err, "job", jobID)
	}
	s.client.logger.Info().Str("job_id", jobID).Msg("Canceled job")
	return nil
}

// Delete removes a job and its data.
func (s *JobsService) Delete(ctx context.Context, jobID string) error {
	if err := requireID("job id", jobID); err != nil {
		return err
	}
	err := s.client.do(ctx, http.MethodDelete, "jobs/"+jobID, nil, nil, nil)
	if err != nil {
		return notFound(err, "job", jobID)
	}
	s.client.logger.Info().Str("job_id", jobID).Msg("Deleted job")
	return nil
}

// Logs fetches one page of the job's log stream.
func (s *JobsService) Logs(ctx context.Context, jobID string, offset, count int) ([]LogEntry, error) {
	if err := requireID("job id", jobID); err != nil {
		return nil, err
	}
	if count <= 0 {
		count = MaxPageSize
	}
	query := url.Values{
		"offset": {strconv.Itoa(offset)},
		"count":  {strconv.Itoa(count)},
	}
	var envelope struct {
		Logs []LogEntry `json:"logs"`
	}
	err := s.client.do(ctx, http.MethodGet, "jobs/"+jobID+"/logs", nil, query, &envelope)
	if err != nil {
		return nil, notFound(err, "job", jobID)
	}
	return envelope.Logs, nil
}

// Items fetches one page of the job's scraped items.
func (s *JobsService) Items(ctx context.Context, jobID string, offset, count int) ([]Item, error) {
	if err := requireID("job id", jobID); err != nil {
		return nil, err
	}
	if count <= 0 {
		count = MaxPageSize
	}
	query := url.Values{
		"offset": {strconv.Itoa(offset)},
		"count":  {strconv.Itoa(count)},
	}
	var envelope struct {
		Items []Item `json:"items"`
	}
	err := s.client.do(ctx, http.MethodGet, "jobs/"+jobID+"/items", nil, query, &envelope)
	if err != nil {
		return nil, notFound(err, "job", jobID)
	}
	return envelope.Items, nil
}

// WaitForCompletion polls the job until it reaches a terminal state, the
// timeout elapses, or ctx is canceled. A timeout of zero waits forever.
func (s *JobsService) WaitForCompletion(ctx context.Context, jobID string, poll, timeout time.Duration) (*Job, error) {
	if err := requireID("job id", jobID); err != nil {
		return nil, err
	}
	if poll <= 0 {
		poll = 5 * time.Second
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		job, err := s.Get(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if job.Finished() {
			return job, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("apcloudy: waiting for job %s: %w", jobID, ctx.Err())
		case <-ticker.C:
		}
	}
}

// BatchGet fetches multiple jobs concurrently with bounded parallelism.
// The result preserves the order of jobIDs. Any single failure aborts the
// batch.
func (s *JobsService) BatchGet(ctx context.Context, jobIDs []string) ([]*Job, error) {
	if len(jobIDs) == 0 {
		return nil, nil
	}

	jobs := make([]*Job, len(jobIDs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)

	for i, id := range jobIDs {
		g.Go(func() error {
			job, err := s.Get(ctx, id)
			if err != nil {
				return err
			}
			jobs[i] = job
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return jobs, nil
}

// BatchCancelResult contains the outcome of a batch cancel operation.
type BatchCancelResult struct {
	Requested int
	Canceled  []string
	Failed    []CancelError
}

// CancelError records a single failed cancellation.
type CancelError struct {
	JobID string
	Err   error
}

// Error implements the error interface.
func (e CancelError) Error() string {
	return fmt.Sprintf("failed to cancel job %s: %v", e.JobID, e.Err)
}

// BatchCancel cancels multiple jobs concurrently. Individual failures do
// not stop the batch; they are collected in the result.
func (s *JobsService) BatchCancel(ctx context.Context, jobIDs []string) BatchCancelResult {
	result := BatchCancelResult{Requested: len(jobIDs)}
	if len(jobIDs) == 0 {
		return result
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)

	var mu sync.Mutex
	for _, id := range jobIDs {
		g.Go(func() error {
			err := s.Cancel(ctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed = append(result.Failed, CancelError{JobID: id, Err: err})
			} else {
				result.Canceled = append(result.Canceled, id)
			}
			return nil
		})
	}
	g.Wait()

	sort.Strings(result.Canceled)
	return result
}
