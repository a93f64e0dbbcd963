package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"silva/internal/workflow"
)

var paramsCmd = &cobra.Command{
	Use:   "params <workflow> [job]",
	Short: "Show effective parameters, writing defaults when absent",
	Long: `Params prints the parameter values of a job, or of every job when no
job is given. Jobs without a params.json get one generated from the
defaults declared in their job.toml.`,
	Args: cobra.RangeArgs(1, 2),
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

		if len(args) == 2 {
			for _, job := range jobs {
				if job.Name == args[1] {
					return printJobParams(job)
				}
			}
			return fmt.Errorf("job %q not found in workflow %s", args[1], folder.Name)
		}

		if params, ok, err := folder.LoadParams(); err != nil {
			return err
		} else if ok {
			fmt.Printf("global:\n")
			if err := printParams(params); err != nil {
				return err
			}
		}
		for _, job := range jobs {
			fmt.Printf("%s:\n", job.Name)
			if err := printJobParams(job); err != nil {
				return err
			}
		}
		return nil
	},
}

func printJobParams(job workflow.JobFolder) error {
	params, err := job.EnsureDefaultParams()
	if err != nil {
		return err
	}
	return printParams(params)
}

func printParams(params map[string]any) error {
	data, err := json.MarshalIndent(params, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
