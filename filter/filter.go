// Package filter compiles expression-based filters over APCloudy jobs.
// Expressions use expr-lang syntax and see the job's fields plus a set of
// date and string helpers:
//
//	State == "running" && Spider == "products"
//	ItemsScraped == 0 && daysSince(CreatedAt) > 7
//	"nightly" in Tags
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/apcloudy/apcloudy-go/apcloudy"
)

// JobFilter is a compiled filter expression.
type JobFilter struct {
	program *vm.Program
	expr    string
}

// Compile compiles a filter expression. The expression must evaluate to a
// boolean per job.
func Compile(expression string) (*JobFilter, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, fmt.Errorf("empty filter expression")
	}

	program, err := expr.Compile(expression,
		expr.Env(buildEnv(apcloudy.Job{})),
		expr.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compile filter expression: %w", err)
	}

	return &JobFilter{
		program: program,
		expr:    expression,
	}, nil
}

// String returns the original expression.
func (f *JobFilter) String() string {
	return f.expr
}

// Match evaluates the filter against a job.
func (f *JobFilter) Match(job apcloudy.Job) (bool, error) {
	result, err := expr.Run(f.program, buildEnv(job))
	if err != nil {
		return false, fmt.Errorf("failed to evaluate filter: %w", err)
	}

	matched, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("filter expression must evaluate to a boolean, got %T", result)
	}
	return matched, nil
}

// Apply returns the jobs matching the filter, preserving order.
func Apply(jobs []apcloudy.Job, f *JobFilter) ([]apcloudy.Job, error) {
	var matched []apcloudy.Job
	for _, job := range jobs {
		ok, err := f.Match(job)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, job)
		}
	}
	return matched, nil
}

// buildEnv exposes job fields and helper functions to the expression.
func buildEnv(job apcloudy.Job) map[string]any {
	return map[string]any{
		// Job data
		"ID":           job.ID,
		"Spider":       job.SpiderName,
		"State":        string(job.State),
		"ProjectID":    job.ProjectID,
		"CreatedAt":    job.CreatedAt.Time,
		"StartedAt":    job.StartedAt.Time,
		"FinishedAt":   job.FinishedAt.Time,
		"ItemsScraped": job.ItemsScraped,
		"RequestsMade": job.RequestsMade,
		"Units":        job.Units,
		"Priority":     job.Priority,
		"Tags":         job.Tags,
		"Finished":     job.Finished(),

		// Date helpers
		"daysSince": func(t time.Time) int {
			if t.IsZero() {
				return 0
			}
			return int(time.Since(t).Hours() / 24)
		},
		"daysAgo": func(days int) time.Time {
			return time.Now().AddDate(0, 0, -days)
		},
		"parseDate": func(dateStr string) time.Time {
			t, _ := time.Parse("2006-01-02", dateStr)
			return t
		},

		// String helpers
		"contains": func(str, substr string) bool {
			return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
		},
		"startsWith": func(str, prefix string) bool {
			return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
		},
		"lower": strings.ToLower,
		"upper": strings.ToUpper,

		// Current time
		"now": time.Now,
	}
}
