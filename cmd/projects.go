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
	projectName        string
	projectDescription string
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Manage APCloudy projects",
}

func init() {
	rootCmd.AddCommand(projectsCmd)

	projectsCmd.AddCommand(projectsListCmd)
	projectsCmd.AddCommand(projectsGetCmd)
	projectsCmd.AddCommand(projectsCreateCmd)
	projectsCmd.AddCommand(projectsUpdateCmd)
	projectsCmd.AddCommand(projectsDeleteCmd)

	projectsCreateCmd.Flags().StringVar(&projectDescription, "description", "", "project description")
	projectsUpdateCmd.Flags().StringVar(&projectName, "name", "", "new project name")
	projectsUpdateCmd.Flags().StringVar(&projectDescription, "description", "", "new project description")
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all accessible projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		projects, err := client.Projects.List(cmd.Context())
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(projects)
		}

		if len(projects) == 0 {
			fmt.Println("No projects found.")
			return nil
		}

		fmt.Printf("Found %d projects:\n", len(projects))
		fmt.Println(strings.Repeat("-", 80))
		for _, p := range projects {
			fmt.Printf("• %s (%s)\n", p.Name, p.ID)
			if p.Description != "" {
				fmt.Printf("  %s\n", p.Description)
			}
			fmt.Printf("  Spiders: %d  Jobs: %d\n", p.SpiderCount, p.JobCount)
		}
		return nil
	},
}

var projectsGetCmd = &cobra.Command{
	Use:   "get <project-id>",
	Short: "Show project details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := client.Projects.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printProject(project)
	},
}

var projectsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := client.Projects.Create(cmd.Context(), args[0], projectDescription)
		if err != nil {
			return err
		}
		fmt.Printf("Created project %s\n", project.ID)
		return printProject(project)
	},
}

var projectsUpdateCmd = &cobra.Command{
	Use:   "update <project-id>",
	Short: "Update a project's name or description",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := apcloudy.UpdateProjectRequest{}
		if cmd.Flags().Changed("name") {
			req.Name = &projectName
		}
		if cmd.Flags().Changed("description") {
			req.Description = &projectDescription
		}
		if req.Name == nil && req.Description == nil {
			return fmt.Errorf("nothing to update: pass --name and/or --description")
		}

		project, err := client.Projects.Update(cmd.Context(), args[0], req)
		if err != nil {
			return err
		}
		return printProject(project)
	},
}

var projectsDeleteCmd = &cobra.Command{
	Use:   "delete <project-id>",
	Short: "Delete a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := client.Projects.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted project %s\n", args[0])
		return nil
	},
}

func printProject(p *apcloudy.Project) error {
	if jsonOutput {
		return printJSON(p)
	}
	fmt.Printf("%s (%s)\n", p.Name, p.ID)
	if p.OrgName != "" {
		fmt.Printf("  Organization: %s\n", p.OrgName)
	}
	if p.Description != "" {
		fmt.Printf("  Description: %s\n", p.Description)
	}
	if !p.CreatedAt.IsZero() {
		fmt.Printf("  Created: %s\n", p.CreatedAt.Format("2006-01-02"))
	}
	fmt.Printf("  Spiders: %d  Jobs: %d\n", p.SpiderCount, p.JobCount)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
