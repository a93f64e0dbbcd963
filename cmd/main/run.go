package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"silva/internal/execution"
	"silva/internal/logging"
	"silva/internal/workflow"
)

var runCmd = &cobra.Command{
	Use:   "run <workflow>",
	Short: "Run a workflow headlessly",
	Long: `Run executes every job of a workflow in dependency order, streaming
log lines to stdout and stderr. The argument is a workflow name under
the home directory (SILVA_HOME_DIR) or a path to a workflow folder.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runWorkflow,
}

var errWorkflowFailed = errors.New("workflow failed")

func runWorkflow(cmd *cobra.Command, args []string) error {
	home := workflow.NewHome(cfg.HomeDir)
	if err := home.EnsureExists(); err != nil {
		return fmt.Errorf("ensure home directory: %w", err)
	}

	folder, err := home.Resolve(args[0])
	if err != nil {
		return err
	}

	runner := execution.NewRunner(cfg)
	run, err := runner.Start(cmd.Context(), folder)
	if err != nil {
		return err
	}

	fmt.Printf("Running workflow: %s\n", folder.Name)
	fmt.Printf("Found %d job(s)\n", len(run.Jobs))

	// Ctrl-C cancels the run; cleanup still happens before the
	// sentinel arrives and the loop below ends.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		logging.Info("cancellation requested, stopping workflow")
		run.Cancel()
	}()

	entries := make([]*execution.JobEntry, len(run.Jobs))
	for i, job := range run.Jobs {
		entries[i] = execution.NewJobEntry(job.Name, cfg.LogBufferSize)
	}

	failed := false
	for ev := range run.Events {
		if ev.JobIndex >= len(run.Jobs) {
			failed = ev.Status == execution.StatusFailed
			continue
		}
		entries[ev.JobIndex].Apply(ev)
		if ev.Line.Content == "" {
			continue
		}
		out := os.Stdout
		if ev.Line.Source == execution.Stderr {
			out = os.Stderr
		}
		fmt.Fprintf(out, "[%s] %s\n", run.Jobs[ev.JobIndex].Name, ev.Line)
	}

	if run.Workspace != nil {
		fmt.Printf("Workspace: %s\n", run.Workspace.Root)
	}

	if failed {
		return errWorkflowFailed
	}
	fmt.Println("Workflow completed successfully")
	return nil
}
