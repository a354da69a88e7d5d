package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/apcloudy/apcloudy-go/apcloudy"
	"github.com/apcloudy/apcloudy-go/filter"
)

var (
	jobProject   string
	jobState     string
	jobSpider    string
	jobTags      []string
	jobCount     int
	jobOffset    int
	jobFilter    string
	jobArgs      string
	jobUnits     int
	jobPriority  int
	itemsAll     bool
	itemsBatch   int
	waitPoll     time.Duration
	waitTimeout  time.Duration
	logsCount    int
	logsOffset   int
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Manage spider runs and their output",
}

func init() {
	rootCmd.AddCommand(jobsCmd)

	jobsCmd.AddCommand(jobsListCmd)
	jobsCmd.AddCommand(jobsGetCmd)
	jobsCmd.AddCommand(jobsRunCmd)
	jobsCmd.AddCommand(jobsCancelCmd)
	jobsCmd.AddCommand(jobsDeleteCmd)
	jobsCmd.AddCommand(jobsLogsCmd)
	jobsCmd.AddCommand(jobsItemsCmd)
	jobsCmd.AddCommand(jobsWaitCmd)

	jobsListCmd.Flags().StringVarP(&jobProject, "project", "p", "", "project id (required)")
	jobsListCmd.Flags().StringVar(&jobState, "state", "", "filter by job state")
	jobsListCmd.Flags().StringVar(&jobSpider, "spider", "", "filter by spider name")
	jobsListCmd.Flags().StringSliceVar(&jobTags, "tags", nil, "filter by tags")
	jobsListCmd.Flags().IntVar(&jobCount, "count", 0, "number of jobs to return")
	jobsListCmd.Flags().IntVar(&jobOffset, "offset", 0, "pagination offset")
	jobsListCmd.Flags().StringVarP(&jobFilter, "filter", "f", "", "client-side filter expression")

	jobsRunCmd.Flags().StringVarP(&jobProject, "project", "p", "", "project id (required)")
	jobsRunCmd.Flags().StringVar(&jobArgs, "args", "", "spider arguments as a JSON object")
	jobsRunCmd.Flags().IntVar(&jobUnits, "units", 0, "number of parallel units")
	jobsRunCmd.Flags().IntVar(&jobPriority, "priority", 0, "job priority (higher runs earlier)")
	jobsRunCmd.Flags().StringSliceVar(&jobTags, "tags", nil, "job tags")

	jobsLogsCmd.Flags().IntVar(&logsOffset, "offset", 0, "log line offset")
	jobsLogsCmd.Flags().IntVar(&logsCount, "count", 0, "number of log lines")

	jobsItemsCmd.Flags().BoolVar(&itemsAll, "all", false, "stream every item instead of one page")
	jobsItemsCmd.Flags().IntVar(&itemsBatch, "batch", 0, "page size for fetches")
	jobsItemsCmd.Flags().IntVar(&jobOffset, "offset", 0, "item offset (single page mode)")

	jobsWaitCmd.Flags().DurationVar(&waitPoll, "poll", 5*time.Second, "poll interval")
	jobsWaitCmd.Flags().DurationVar(&waitTimeout, "timeout", 0, "max time to wait (0 waits forever)")
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs for a project",
	RunE: func(cmd *cobra.Command, args []string) error {
		jobs, err := client.Jobs.List(cmd.Context(), jobProject, apcloudy.ListJobsOptions{
			State:  apcloudy.JobState(jobState),
			Spider: jobSpider,
			Count:  jobCount,
			Offset: jobOffset,
			Tags:   jobTags,
		})
		if err != nil {
			return err
		}

		if jobFilter != "" {
			f, err := filter.Compile(jobFilter)
			if err != nil {
				return fmt.Errorf("invalid filter expression: %w", err)
			}
			jobs, err = filter.Apply(jobs, f)
			if err != nil {
				return err
			}
		}

		if jsonOutput {
			return printJSON(jobs)
		}

		if len(jobs) == 0 {
			fmt.Println("No jobs found.")
			return nil
		}

		fmt.Printf("Found %d jobs:\n", len(jobs))
		fmt.Println(strings.Repeat("-", 80))
		for i := range jobs {
			printJobLine(&jobs[i])
		}
		return nil
	},
}

var jobsGetCmd = &cobra.Command{
	Use:   "get <job-id>",
	Short: "Show job details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		job, err := client.Jobs.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJob(job)
	},
}

var jobsRunCmd = &cobra.Command{
	Use:   "run <spider-name>",
	Short: "Start a spider run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var spiderArgs map[string]any
		if jobArgs != "" {
			if err := json.Unmarshal([]byte(jobArgs), &spiderArgs); err != nil {
				return fmt.Errorf("invalid --args JSON: %w", err)
			}
		}

		job, err := client.Jobs.Run(cmd.Context(), jobProject, args[0], apcloudy.RunOptions{
			Units:    jobUnits,
			Args:     spiderArgs,
			Priority: jobPriority,
			Tags:     jobTags,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Started job %s\n", job.ID)
		return printJob(job)
	},
}

var jobsCancelCmd = &cobra.Command{
	Use:   "cancel <job-id>...",
	Short: "Cancel one or more jobs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			if err := client.Jobs.Cancel(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Canceled job %s\n", args[0])
			return nil
		}

		result := client.Jobs.BatchCancel(cmd.Context(), args)
		fmt.Printf("Canceled %d of %d jobs\n", len(result.Canceled), result.Requested)
		for _, failure := range result.Failed {
			logger.Warn().Str("job_id", failure.JobID).Err(failure.Err).Msg("Cancel failed")
		}
		if len(result.Failed) > 0 {
			return fmt.Errorf("%d of %d cancellations failed", len(result.Failed), result.Requested)
		}
		return nil
	},
}

var jobsDeleteCmd = &cobra.Command{
	Use:   "delete <job-id>",
	Short: "Delete a job and its data",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := client.Jobs.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted job %s\n", args[0])
		return nil
	},
}

var jobsLogsCmd = &cobra.Command{
	Use:   "logs <job-id>",
	Short: "Fetch job log entries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := client.Jobs.Logs(cmd.Context(), args[0], logsOffset, logsCount)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(entries)
		}
		for _, e := range entries {
			ts := ""
			if !e.Time.IsZero() {
				ts = e.Time.Format(time.RFC3339) + " "
			}
			fmt.Printf("%s%-5s %s\n", ts, strings.ToUpper(e.Level), e.Message)
		}
		return nil
	},
}

var jobsItemsCmd = &cobra.Command{
	Use:   "items <job-id>",
	Short: "Fetch scraped items from a job",
	Long: `Fetch scraped items from a job. By default a single page is returned;
with --all the command streams every item, fetching pages lazily.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !itemsAll {
			items, err := client.Jobs.Items(cmd.Context(), args[0], jobOffset, itemsBatch)
			if err != nil {
				return err
			}
			return printJSON(items)
		}

		it := client.Jobs.IterItems(args[0], itemsBatch)
		defer it.Close()

		enc := json.NewEncoder(cmd.OutOrStdout())
		count := 0
		for it.Next(cmd.Context()) {
			if err := enc.Encode(it.Item()); err != nil {
				return err
			}
			count++
		}
		if err := it.Err(); err != nil {
			return err
		}
		logger.Info().Int("items", count).Str("job_id", args[0]).Msg("Streamed job items")
		return nil
	},
}

var jobsWaitCmd = &cobra.Command{
	Use:   "wait <job-id>",
	Short: "Block until a job reaches a terminal state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		job, err := client.Jobs.WaitForCompletion(cmd.Context(), args[0], waitPoll, waitTimeout)
		if err != nil {
			return err
		}
		fmt.Printf("Job %s finished with state %s\n", job.ID, job.State)
		return printJob(job)
	},
}

func printJobLine(j *apcloudy.Job) {
	fmt.Printf("• %s  %s  [%s]", j.ID, j.SpiderName, j.State)
	if j.ItemsScraped > 0 {
		fmt.Printf("  %d items", j.ItemsScraped)
	}
	fmt.Println()
}

func printJob(j *apcloudy.Job) error {
	if jsonOutput {
		return printJSON(j)
	}
	fmt.Printf("%s (%s)\n", j.ID, j.State)
	fmt.Printf("  Spider: %s\n", j.SpiderName)
	if j.ProjectID != "" {
		fmt.Printf("  Project: %s\n", j.ProjectID)
	}
	if !j.CreatedAt.IsZero() {
		fmt.Printf("  Created: %s\n", j.CreatedAt.Format(time.RFC3339))
	}
	if !j.StartedAt.IsZero() {
		fmt.Printf("  Started: %s\n", j.StartedAt.Format(time.RFC3339))
	}
	if !j.FinishedAt.IsZero() {
		fmt.Printf("  Finished: %s\n", j.FinishedAt.Format(time.RFC3339))
	}
	if d := j.Duration(); d > 0 {
		fmt.Printf("  Duration: %s\n", d.Round(time.Second))
	}
	fmt.Printf("  Items: %d  Requests: %d  Units: %d\n", j.ItemsScraped, j.RequestsMade, j.Units)
	if len(j.Tags) > 0 {
		fmt.Printf("  Tags: %s\n", strings.Join(j.Tags, ", "))
	}
	return nil
}
