package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"silva/internal/workflow"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List workflows in the home directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		home := workflow.NewHome(cfg.HomeDir)
		if err := home.EnsureExists(); err != nil {
			return fmt.Errorf("ensure home directory: %w", err)
		}

		workflows, err := home.List()
		if err != nil {
			return err
		}
		if len(workflows) == 0 {
			fmt.Printf("No workflows found under %s\n", home.Dir)
			return nil
		}
		for _, wf := range workflows {
			fmt.Println(wf.Name)
		}
		return nil
	},
}

var jobsCmd = &cobra.Command{
	Use:   "jobs <workflow>",
	Short: "List the jobs of a workflow, sorted by name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		home := workflow.NewHome(cfg.HomeDir)
		folder, err := home.Resolve(args[0])
		if err != nil {
			return err
		}

		jobs, err := workflow.ScanJobs(folder.Path)
		if err != nil {
			return err
		}
		for _, job := range jobs {
			meta, err := job.LoadMeta()
			if err != nil {
				fmt.Printf("%-20s (invalid config: %v)\n", job.Name, err)
				continue
			}
			image := meta.Container.Image
			if image == "" {
				image = "built from " + meta.Container.Dockerfile
			}
			fmt.Printf("%-20s %-30s %s\n", job.Name, image, meta.Description)
		}
		return nil
	},
}
