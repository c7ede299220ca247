package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dolphinheart/mulastudio/internal/api"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var (
		status    string
		taskType  string
		projectID string
		page      int
		pageSize  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List backend tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.ensureClient()
			if err != nil {
				return err
			}
			result, err := client.ListTasks(cmd.Context(), api.TaskFilter{
				Status:    api.Status(status),
				Type:      taskType,
				ProjectID: projectID,
				Page:      page,
				PageSize:  pageSize,
			})
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(result.Items))
			for _, t := range result.Items {
				rows = append(rows, []string{
					t.ID,
					t.Type,
					string(t.Status),
					t.CreatedAt.Format(time.RFC3339),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "Type", "Status", "Created"}, rows))
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d tasks\n", len(result.Items), result.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (pending, running, completed, failed)")
	cmd.Flags().StringVar(&taskType, "type", "", "Filter by task type (generate, transcribe)")
	cmd.Flags().StringVar(&projectID, "project", "", "Filter by project id")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 50, "Page size")

	return cmd
}
