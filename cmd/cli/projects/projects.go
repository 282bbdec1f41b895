package projects

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nsetools/project-scheduler/cmd/cli/auth"
	"github.com/nsetools/project-scheduler/cmd/cli/output"
	"github.com/spf13/cobra"
)

// InitProjects registers project commands on the root command.
func InitProjects(rootCmd *cobra.Command) {
	projectsCmd := &cobra.Command{
		Use:   "projects",
		Short: "Manage projects",
	}

	projectsCmd.AddCommand(
		listCmd(),
		getCmd(),
		createCmd(),
		deleteCmd(),
		progressCmd(),
	)

	rootCmd.AddCommand(projectsCmd)
}

type projectRow struct {
	ID            int        `json:"id"`
	Name          string     `json:"name"`
	ProjectNumber string     `json:"projectNumber"`
	Manager       string     `json:"manager"`
	Status        string     `json:"status"`
	Progress      int        `json:"progress"`
	Deadline      *time.Time `json:"deadline"`
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := auth.Request("GET", "/projects", nil)
			if err != nil {
				return err
			}

			var resp struct {
				Items []projectRow `json:"items"`
				Total int          `json:"total"`
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return err
			}

			rows := make([][]interface{}, 0, len(resp.Items))
			for _, p := range resp.Items {
				deadline := ""
				if p.Deadline != nil {
					deadline = p.Deadline.Format("2006-01-02")
				}
				rows = append(rows, []interface{}{
					p.ID, p.Name, p.ProjectNumber, p.Manager, p.Status,
					fmt.Sprintf("%d%%", p.Progress), deadline,
				})
			}
			output.RenderTable(
				[]string{"ID", "Name", "Number", "Manager", "Status", "Progress", "Deadline"},
				rows,
			)
			fmt.Printf("Total: %d\n", resp.Total)
			return nil
		},
	}
}

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one project with team and phases",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := auth.Request("GET", "/projects/"+args[0], nil)
			if err != nil {
				return err
			}
			fmt.Println(string(body))
			return nil
		},
	}
}

func createCmd() *cobra.Command {
	var name, number, manager, status string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{
				"name":          name,
				"projectNumber": number,
				"manager":       manager,
			}
			if status != "" {
				payload["status"] = status
			}
			body, err := auth.Request("POST", "/projects", payload)
			if err != nil {
				return err
			}
			fmt.Println(string(body))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Project name")
	cmd.Flags().StringVar(&number, "number", "", "Project number (e.g. #21000)")
	cmd.Flags().StringVar(&manager, "manager", "", "Project manager")
	cmd.Flags().StringVar(&status, "status", "", "Initial status (default Active)")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("number")
	cmd.MarkFlagRequired("manager")

	return cmd
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := auth.Request("DELETE", "/projects/"+args[0], nil); err != nil {
				return err
			}
			fmt.Println("Project deleted.")
			return nil
		},
	}
}

func progressCmd() *cobra.Command {
	var progress int

	cmd := &cobra.Command{
		Use:   "progress <id>",
		Short: "Set a project's progress percentage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := auth.Request("PATCH", "/projects/"+args[0]+"/progress",
				map[string]int{"progress": progress})
			if err != nil {
				return err
			}
			fmt.Println(string(body))
			return nil
		},
	}

	cmd.Flags().IntVar(&progress, "value", 0, "Progress percentage (0-100)")
	cmd.MarkFlagRequired("value")

	return cmd
}
