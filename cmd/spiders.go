package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/apcloudy/apcloudy-go/apcloudy"
)

var (
	spiderProject  string
	spiderSettings string
)

var spidersCmd = &cobra.Command{
	Use:   "spiders",
	Short: "Manage spiders within a project",
}

func init() {
	rootCmd.AddCommand(spidersCmd)

	spidersCmd.PersistentFlags().StringVarP(&spiderProject, "project", "p", "", "project id (required)")

	spidersCmd.AddCommand(spidersListCmd)
	spidersCmd.AddCommand(spidersGetCmd)
	spidersCmd.AddCommand(spidersDeployCmd)
	spidersCmd.AddCommand(spidersDeleteCmd)

	spidersDeployCmd.Flags().StringVar(&spiderSettings, "settings", "", "spider settings as a JSON object")
}

var spidersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List spiders in the project",
	RunE: func(cmd *cobra.Command, args []string) error {
		spiders, err := client.Spiders.List(cmd.Context(), spiderProject)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(spiders)
		}

		if len(spiders) == 0 {
			fmt.Println("No spiders found.")
			return nil
		}

		fmt.Printf("Found %d spiders:\n", len(spiders))
		fmt.Println(strings.Repeat("-", 80))
		for _, s := range spiders {
			fmt.Printf("• %s (v%s)\n", s.Name, s.Version)
			if len(s.Tags) > 0 {
				fmt.Printf("  Tags: %s\n", strings.Join(s.Tags, ", "))
			}
		}
		return nil
	},
}

var spidersGetCmd = &cobra.Command{
	Use:   "get <spider-name>",
	Short: "Show spider details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spider, err := client.Spiders.Get(cmd.Context(), spiderProject, args[0])
		if err != nil {
			return err
		}
		return printSpider(spider)
	},
}

var spidersDeployCmd = &cobra.Command{
	Use:   "deploy <spider-name> <code-file>",
	Short: "Upload spider code to the project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, codePath := args[0], args[1]

		var settings map[string]any
		if spiderSettings != "" {
			if err := json.Unmarshal([]byte(spiderSettings), &settings); err != nil {
				return fmt.Errorf("invalid --settings JSON: %w", err)
			}
		}

		f, err := os.Open(codePath)
		if err != nil {
			return fmt.Errorf("failed to open spider code: %w", err)
		}
		defer f.Close()

		if err := client.Spiders.Deploy(cmd.Context(), spiderProject, name, f, settings); err != nil {
			return err
		}
		fmt.Printf("Deployed spider %s to project %s\n", name, spiderProject)
		return nil
	},
}

var spidersDeleteCmd = &cobra.Command{
	Use:   "delete <spider-name>",
	Short: "Delete a spider from the project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := client.Spiders.Delete(cmd.Context(), spiderProject, args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted spider %s\n", args[0])
		return nil
	},
}

func printSpider(s *apcloudy.Spider) error {
	if jsonOutput {
		return printJSON(s)
	}
	fmt.Printf("%s (v%s)\n", s.Name, s.Version)
	if s.Description != "" {
		fmt.Printf("  Description: %s\n", s.Description)
	}
	if len(s.Tags) > 0 {
		fmt.Printf("  Tags: %s\n", strings.Join(s.Tags, ", "))
	}
	if len(s.Settings) > 0 {
		fmt.Printf("  Settings: %d entries\n", len(s.Settings))
	}
	return nil
}
