package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/beemnet-bee/viplayer/internal/orchestrator"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage planning projects",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create <name> [file...]",
	Short: "Create a project from report documents and run the full analysis",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()
		if err := requireSignIn(env); err != nil {
			return err
		}

		docs := make([]orchestrator.Document, 0, len(args)-1)
		var closers []*os.File
		defer func() {
			for _, f := range closers {
				f.Close()
			}
		}()
		for _, path := range args[1:] {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			closers = append(closers, f)
			docs = append(docs, orchestrator.Document{Name: filepath.Base(path), Reader: f})
		}

		project, err := env.Orch.CreateProject(cmd.Context(), args[0], docs)
		if err != nil {
			return err
		}

		fmt.Printf("created project %s (%s) with %d reports\n", project.Name, project.ID, len(project.Reports))
		fmt.Println()
		fmt.Println(project.AnalysisResult)
		return nil
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the signed-in operator's projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()
		if err := requireSignIn(env); err != nil {
			return err
		}

		user, _ := env.Sess.CurrentUser()
		if len(user.Projects) == 0 {
			fmt.Println("no projects yet")
			return nil
		}
		for _, p := range user.Projects {
			fmt.Printf("%-16s  %-30s  %3d reports  %2d placements\n", p.ID, p.Name, len(p.Reports), len(p.Placements))
		}
		return nil
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete <project-id>",
	Short: "Delete a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()
		if err := requireSignIn(env); err != nil {
			return err
		}

		if err := env.Orch.DeleteProject(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("deleted", args[0])
		return nil
	},
}

func init() {
	projectCmd.AddCommand(projectCreateCmd, projectListCmd, projectDeleteCmd)
	rootCmd.AddCommand(projectCmd)
}
