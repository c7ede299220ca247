package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dolphinheart/mulastudio/internal/api"
	"github.com/dolphinheart/mulastudio/internal/prefs"
)

func newProjectsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Manage projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newProjectsListCommand(ctx))
	cmd.AddCommand(newProjectsCreateCommand(ctx))
	cmd.AddCommand(newProjectsUseCommand(ctx))

	return cmd
}

func newProjectsListCommand(ctx *commandContext) *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.ensureClient()
			if err != nil {
				return err
			}
			page, err := client.ListProjects(cmd.Context(), api.ProjectFilter{Search: search, PageSize: 200})
			if err != nil {
				return err
			}
			active, _ := prefs.LoadActiveProject()
			rows := make([][]string, 0, len(page.Items))
			for _, p := range page.Items {
				marker := ""
				if p.ID == active {
					marker = "*"
				}
				rows = append(rows, []string{marker, p.ID, p.Title, p.Genre, p.Status})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"", "ID", "Title", "Genre", "Status"}, rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "Title search")

	return cmd
}

func newProjectsCreateCommand(ctx *commandContext) *cobra.Command {
	var genre string

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.ensureClient()
			if err != nil {
				return err
			}
			p, err := client.CreateProject(cmd.Context(), api.ProjectCreate{Title: args[0], Genre: genre})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), p.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&genre, "genre", "", "Project genre")

	return cmd
}

func newProjectsUseCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "use <project-id>",
		Short: "Set the active project for future submissions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.ensureClient()
			if err != nil {
				return err
			}
			p, err := client.GetProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := prefs.SaveActiveProject(p.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Active project: %s\n", p.Title)
			return nil
		},
	}
	return cmd
}
