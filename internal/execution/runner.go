package execution

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"silva/internal/config"
	"silva/internal/dag"
	"silva/internal/jobconfig"
	"silva/internal/workflow"
)

// jobExecutor is the slice of Executor the runner depends on.
type jobExecutor interface {
	SetJobIndex(idx int)
	RunJob(ctx context.Context, jobDir string, meta *jobconfig.JobMeta, workflowParams, jobParams jobconfig.Params, registry *ContainerRegistry, cancel <-chan struct{}) error
	CleanupContainers(ctx context.Context, ids []string)
}

// Run is a handle on an in-flight workflow run. Events carries one
// entry per status change or log line; the sentinel event with
// JobIndex == len(Jobs) closes the run. The workspace outlives the
// run and is removed only by whoever owns the handle.
type Run struct {
	Jobs      []workflow.JobFolder
	Events    <-chan Event
	Workspace *Workspace

	cancel     chan struct{}
	cancelOnce sync.Once
}

// Cancel fires the one-shot cancellation signal. The current script's
// container is stopped, no further jobs start, and cleanup still runs.
func (r *Run) Cancel() {
	r.cancelOnce.Do(func() { close(r.cancel) })
}

// Runner executes workflows sequentially, one dedicated goroutine per
// run, streaming events to the caller.
type Runner struct {
	newExecutor func(chan<- Event) (jobExecutor, error)
	eventCap    int
}

// NewRunner creates a runner backed by the Docker executor.
func NewRunner(cfg *config.Config) *Runner {
	eventCap := 32
	if cfg != nil && cfg.EventBufferSize > 0 {
		eventCap = cfg.EventBufferSize
	}
	return &Runner{
		newExecutor: func(events chan<- Event) (jobExecutor, error) {
			return NewExecutor(events)
		},
		eventCap: eventCap,
	}
}

// Start scans the workflow and launches its execution. Scan failures
// and empty workflows are reported synchronously; everything after
// that arrives as events, ending with the workflow sentinel.
func (r *Runner) Start(ctx context.Context, folder workflow.WorkflowFolder) (*Run, error) {
	jobs, err := workflow.ScanJobs(folder.Path)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, ErrNoJobs
	}

	events := make(chan Event, r.eventCap)
	run := &Run{
		Jobs:   jobs,
		Events: events,
		cancel: make(chan struct{}),
	}

	go r.execute(ctx, folder, jobs, events, run)
	return run, nil
}

func (r *Runner) execute(
	ctx context.Context,
	folder workflow.WorkflowFolder,
	jobs []workflow.JobFolder,
	events chan Event,
	run *Run,
) {
	defer close(events)

	send := func(idx int, status JobStatus, line LogLine) {
		select {
		case events <- Event{JobIndex: idx, Status: status, Line: line}:
		case <-ctx.Done():
		}
	}
	failWorkflow := func(idx int, format string, args ...any) {
		send(idx, StatusFailed, NewLogLine(Stderr, fmt.Sprintf(format, args...)))
		send(len(jobs), StatusFailed, EmptyLogLine())
	}

	exec, err := r.newExecutor(events)
	if err != nil {
		failWorkflow(0, "Failed to create docker executor: %v", err)
		return
	}

	// Workflow metadata and params fall back to empty when absent.
	meta, metaFound, err := folder.LoadMeta()
	if err != nil {
		failWorkflow(0, "Load workflow metadata error: %v", err)
		return
	}
	if !metaFound {
		meta = jobconfig.NewWorkflowMeta(folder.Name, "")
	}

	workflowParams, _, err := folder.LoadParams()
	if err != nil {
		failWorkflow(0, "Load workflow params error: %v", err)
		return
	}
	if metaFound {
		if err := meta.ValidateParams(workflowParams); err != nil {
			failWorkflow(0, "Workflow params error: %v", err)
			return
		}
	}

	// Job metadata is loaded up front: config errors fail the workflow
	// before any container work, and the legacy depends_on fallback
	// needs every meta anyway.
	metas := make(map[string]*jobconfig.JobMeta, len(jobs))
	names := make([]string, len(jobs))
	indexOf := make(map[string]int, len(jobs))
	for i, job := range jobs {
		names[i] = job.Name
		indexOf[job.Name] = i
		jobMeta, err := job.LoadMeta()
		if err != nil {
			failWorkflow(i, "Load job config error: %v", err)
			return
		}
		metas[job.Name] = jobMeta
	}

	deps := dependencyOracle(meta, metas)
	order, err := dag.Sort(names, deps)
	if err != nil {
		failWorkflow(0, "Dependency error: %v", err)
		return
	}
	send(0, StatusIdle, NewLogLine(Stdout, "Jobs will execute in dependency order: "+strings.Join(order, " -> ")))

	ws, err := MaterializeWorkspace(folder.Path)
	if err != nil {
		failWorkflow(0, "Create workspace error: %v", err)
		return
	}
	run.Workspace = ws

	registry := NewContainerRegistry()
	failed := false

	for _, name := range order {
		if canceled(run.cancel) {
			failed = true
			break
		}

		idx := indexOf[name]
		exec.SetJobIndex(idx)
		jobMeta := metas[name]

		jobParams, _, err := jobs[idx].LoadParams()
		if err != nil {
			send(idx, StatusFailed, NewLogLine(Stderr, fmt.Sprintf("Load job params error: %v", err)))
			failed = true
			break
		}
		if err := jobMeta.ValidateParams(jobParams); err != nil {
			send(idx, StatusFailed, NewLogLine(Stderr, fmt.Sprintf("Job params error: %v", err)))
			failed = true
			break
		}

		propagateInputs(ws, name, jobMeta.Inputs, deps[name], func(line LogLine) {
			send(idx, StatusRunning, line)
		})

		if err := exec.RunJob(ctx, ws.JobDir(name), jobMeta, workflowParams, jobParams, registry, run.cancel); err != nil {
			send(idx, StatusFailed, NewLogLine(Stderr, fmt.Sprintf("Run job error: %v", err)))
			failed = true
			break
		}
	}

	// Containers are cleaned up whatever happened above.
	exec.CleanupContainers(context.WithoutCancel(ctx), registry.IDs())

	status := StatusCompleted
	if failed {
		status = StatusFailed
	}
	send(len(jobs), status, EmptyLogLine())
}

// dependencyOracle builds the dependency map: the workflow metadata
// wins when it declares any edges, otherwise the jobs' legacy
// depends_on lists are used.
func dependencyOracle(meta *jobconfig.WorkflowMeta, metas map[string]*jobconfig.JobMeta) map[string][]string {
	if len(meta.Dependencies) > 0 {
		return meta.Dependencies
	}
	deps := make(map[string][]string, len(metas))
	for name, jobMeta := range metas {
		if len(jobMeta.DependsOn) > 0 {
			deps[name] = jobMeta.DependsOn
		}
	}
	return deps
}

func canceled(cancel <-chan struct{}) bool {
	select {
	case <-cancel:
		return true
	default:
		return false
	}
}
