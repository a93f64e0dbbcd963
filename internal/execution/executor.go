package execution

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/docker/docker/pkg/stdcopy"

	"silva/internal/jobconfig"
	"silva/internal/logging"
)

const (
	// workDir is where the job folder is mounted inside the container.
	workDir = "/workspace"
	// builtImageTag names images built from a job Dockerfile.
	builtImageTag = "silva-job:latest"
	// containerStartTimeout bounds the wait for a container to report
	// running after start.
	containerStartTimeout = 30 * time.Second
	// containerStartPollInterval is the inspect cadence during that wait.
	containerStartPollInterval = 100 * time.Millisecond
	// stopGraceSeconds is the grace period a stopped container gets
	// before the daemon kills it: after SIGINT on cancellation, after
	// the default stop signal on cleanup.
	stopGraceSeconds = 3
)

// Executor drives the Docker daemon for one workflow run. Job status
// and log lines are streamed on the event channel, tagged with the
// current job index.
type Executor struct {
	cli    *client.Client
	events chan<- Event
	jobIdx int
}

// NewExecutor connects to the Docker daemon using the environment
// defaults and negotiates the API version.
func NewExecutor(events chan<- Event) (*Executor, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return &Executor{cli: cli, events: events}, nil
}

// Close releases the underlying client.
func (e *Executor) Close() error {
	return e.cli.Close()
}

// SetJobIndex tags subsequent events with the given job index.
func (e *Executor) SetJobIndex(idx int) {
	e.jobIdx = idx
}

// emit sends an event, giving up when the context ends so a vanished
// consumer cannot wedge the engine.
func (e *Executor) emit(ctx context.Context, status JobStatus, line LogLine) error {
	select {
	case e.events <- Event{JobIndex: e.jobIdx, Status: status, Line: line}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Executor) emitOut(ctx context.Context, status JobStatus, format string, args ...any) error {
	return e.emit(ctx, status, NewLogLine(Stdout, fmt.Sprintf(format, args...)))
}

func (e *Executor) emitErr(ctx context.Context, status JobStatus, format string, args ...any) error {
	return e.emit(ctx, status, NewLogLine(Stderr, fmt.Sprintf(format, args...)))
}

// PullImage pulls a named image from a registry, decoding the progress
// stream so in-band daemon errors surface.
func (e *Executor) PullImage(ctx context.Context, ref string) error {
	if err := e.emitOut(ctx, StatusPullingImage, "Pulling image: %s", ref); err != nil {
		return err
	}

	reader, err := e.cli.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return &ImageError{Ref: ref, Err: err}
	}
	defer reader.Close()

	if err := jsonmessage.DisplayJSONMessagesStream(reader, io.Discard, 0, false, nil); err != nil {
		return &ImageError{Ref: ref, Err: err}
	}
	return nil
}

// BuildImage builds an image from a Dockerfile, using its parent
// directory as the build context, and returns the silva-job:latest tag.
func (e *Executor) BuildImage(ctx context.Context, dockerfilePath string) (string, error) {
	if err := e.emitOut(ctx, StatusBuildingImage, "Building image from: %s", dockerfilePath); err != nil {
		return "", err
	}

	buildContext, err := tarDirectory(filepath.Dir(dockerfilePath))
	if err != nil {
		return "", &ImageError{Ref: builtImageTag, Err: err}
	}

	resp, err := e.cli.ImageBuild(ctx, buildContext, build.ImageBuildOptions{
		Tags:       []string{builtImageTag},
		Dockerfile: filepath.Base(dockerfilePath),
		Remove:     true,
	})
	if err != nil {
		return "", &ImageError{Ref: builtImageTag, Err: err}
	}
	defer resp.Body.Close()

	if err := jsonmessage.DisplayJSONMessagesStream(resp.Body, io.Discard, 0, false, nil); err != nil {
		return "", &ImageError{Ref: builtImageTag, Err: err}
	}
	return builtImageTag, nil
}

// RunJob acquires the job's image, creates or reuses a container with
// the job directory mounted at /workspace, and executes the pre, run
// and post scripts in order. The container id is recorded in the
// registry; cancellation stops the current script's container with
// SIGINT and a short grace.
func (e *Executor) RunJob(
	ctx context.Context,
	jobDir string,
	meta *jobconfig.JobMeta,
	workflowParams, jobParams jobconfig.Params,
	registry *ContainerRegistry,
	cancel <-chan struct{},
) error {
	if err := e.emitOut(ctx, StatusPending, "Preparing job: %s", meta.Name); err != nil {
		return err
	}

	imageName := meta.Container.Image
	if meta.Container.Dockerfile != "" {
		tag, err := e.BuildImage(ctx, filepath.Join(jobDir, meta.Container.Dockerfile))
		if err != nil {
			return err
		}
		imageName = tag
	} else if err := e.PullImage(ctx, imageName); err != nil {
		return err
	}

	containerID, err := e.acquireContainer(ctx, jobDir, meta, imageName, registry)
	if err != nil {
		return err
	}

	if err := e.emitOut(ctx, StatusContainerRunning, "Container %s is running", shortID(containerID)); err != nil {
		return err
	}
	if err := e.emitOut(ctx, StatusRunning, "Container started and ready"); err != nil {
		return err
	}

	env := BuildEnv(workflowParams, jobParams)
	scripts := []struct {
		script   string
		optional bool
	}{
		{meta.Scripts.Pre, true},
		{meta.Scripts.Run, false},
		{meta.Scripts.Post, true},
	}

	for _, s := range scripts {
		if s.optional {
			if _, statErr := os.Stat(filepath.Join(jobDir, filepath.Clean(s.script))); statErr != nil {
				if err := e.emitOut(ctx, StatusRunning, "Script %s not found, skipping", s.script); err != nil {
					return err
				}
				continue
			}
		}

		if err := e.emitOut(ctx, StatusRunning, "Executing script: %s", s.script); err != nil {
			return err
		}

		exitCode, err := e.execScript(ctx, containerID, s.script, env, cancel)
		if err != nil {
			return err
		}
		if exitCode != 0 {
			scriptErr := &ScriptError{Script: s.script, ExitCode: exitCode}
			if err := e.emitErr(ctx, StatusFailed, "Script %s failed with exit code %d", s.script, exitCode); err != nil {
				return err
			}
			return scriptErr
		}

		if err := e.emitOut(ctx, StatusRunning, "Script %s completed successfully", s.script); err != nil {
			return err
		}
	}

	return e.emitOut(ctx, StatusCompleted, "Job %s completed", meta.Name)
}

// acquireContainer returns a running container for the image, reusing
// the registry entry when allowed or creating and starting a new one.
func (e *Executor) acquireContainer(
	ctx context.Context,
	jobDir string,
	meta *jobconfig.JobMeta,
	imageName string,
	registry *ContainerRegistry,
) (string, error) {
	if meta.Container.ReuseContainer {
		if id, ok := registry.Lookup(imageName); ok {
			if err := e.emitOut(ctx, StatusCreatingContainer, "Reusing container %s for image %s", shortID(id), imageName); err != nil {
				return "", err
			}
			return id, nil
		}
	}

	if err := e.emitOut(ctx, StatusCreatingContainer, "Creating container with image: %s", imageName); err != nil {
		return "", err
	}

	hostConfig := &container.HostConfig{
		Binds:      []string{jobDir + ":" + workDir},
		ExtraHosts: []string{"host.docker.internal:host-gateway"},
	}
	if meta.Container.UseGPU {
		if err := e.emitOut(ctx, StatusCreatingContainer, "GPU support enabled for this container"); err != nil {
			return "", err
		}
		hostConfig.Resources = container.Resources{
			DeviceRequests: []container.DeviceRequest{{
				Count:        -1,
				Capabilities: [][]string{{"gpu"}},
			}},
		}
	}

	resp, err := e.cli.ContainerCreate(ctx, &container.Config{
		Image:      imageName,
		Tty:        true,
		WorkingDir: workDir,
	}, hostConfig, nil, nil, "")
	if err != nil {
		return "", &ContainerError{Op: "create", Err: err}
	}

	if err := e.emitOut(ctx, StatusCreatingContainer, "Container created: %s, binding %s to %s", shortID(resp.ID), jobDir, workDir); err != nil {
		return "", err
	}

	if err := e.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		e.removeContainer(resp.ID)
		return "", &ContainerError{Op: "start", ID: resp.ID, Err: err}
	}

	if err := e.waitRunning(ctx, resp.ID); err != nil {
		e.removeContainer(resp.ID)
		return "", err
	}

	registry.Record(imageName, resp.ID, meta.Container.ReuseContainer)
	return resp.ID, nil
}

// waitRunning polls the daemon until the container reports running, it
// dies, or the start timeout elapses.
func (e *Executor) waitRunning(ctx context.Context, containerID string) error {
	deadline := time.Now().Add(containerStartTimeout)
	for {
		inspect, err := e.cli.ContainerInspect(ctx, containerID)
		if err != nil {
			return &ContainerError{Op: "inspect", ID: containerID, Err: err}
		}
		if state := inspect.State; state != nil {
			if state.Running {
				return nil
			}
			if state.Dead || state.OOMKilled {
				return &ContainerError{Op: "start", ID: containerID, Err: fmt.Errorf("container died during startup")}
			}
		}
		if time.Now().After(deadline) {
			return &ContainerError{Op: "start", ID: containerID, Err: fmt.Errorf("container did not reach running within %s", containerStartTimeout)}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(containerStartPollInterval):
		}
	}
}

// streamLine is one demultiplexed line of exec output.
type streamLine struct {
	source LogSource
	text   string
}

// execScript runs a script via /bin/bash -c inside the container,
// streaming each output line as an event. It returns the exit code, or
// ErrCanceled when the cancellation signal fires mid-stream.
func (e *Executor) execScript(
	ctx context.Context,
	containerID, script string,
	env []string,
	cancel <-chan struct{},
) (int, error) {
	execResp, err := e.cli.ContainerExecCreate(ctx, containerID, container.ExecOptions{
		Cmd:          []string{"/bin/bash", "-c", script},
		WorkingDir:   workDir,
		Env:          env,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return 0, &ContainerError{Op: "exec", ID: containerID, Err: err}
	}

	attach, err := e.cli.ContainerExecAttach(ctx, execResp.ID, container.ExecAttachOptions{})
	if err != nil {
		return 0, &ContainerError{Op: "exec", ID: containerID, Err: err}
	}
	defer attach.Close()

	lines := make(chan streamLine, 64)
	go demuxExecOutput(attach.Reader, lines)

stream:
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				break stream
			}
			if err := e.emit(ctx, StatusRunning, NewLogLine(line.source, line.text)); err != nil {
				return 0, err
			}
		case <-cancel:
			go drainLines(lines)
			e.stopContainer(containerID)
			return 0, ErrCanceled
		case <-ctx.Done():
			go drainLines(lines)
			e.stopContainer(containerID)
			return 0, ctx.Err()
		}
	}

	inspect, err := e.cli.ContainerExecInspect(ctx, execResp.ID)
	if err != nil {
		return 0, &ContainerError{Op: "exec inspect", ID: containerID, Err: err}
	}
	return inspect.ExitCode, nil
}

// demuxExecOutput splits the multiplexed exec stream into stdout and
// stderr lines, closing out when both sides end.
func demuxExecOutput(r io.Reader, out chan<- streamLine) {
	stdoutR, stdoutW := io.Pipe()
	stderrR, stderrW := io.Pipe()

	go func() {
		_, err := stdcopy.StdCopy(stdoutW, stderrW, r)
		stdoutW.CloseWithError(err)
		stderrW.CloseWithError(err)
	}()

	var wg sync.WaitGroup
	for _, side := range []struct {
		reader io.Reader
		source LogSource
	}{
		{stdoutR, Stdout},
		{stderrR, Stderr},
	} {
		wg.Add(1)
		go func(reader io.Reader, source LogSource) {
			defer wg.Done()
			scanner := bufio.NewScanner(reader)
			scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
			for scanner.Scan() {
				out <- streamLine{source: source, text: scanner.Text()}
			}
		}(side.reader, side.source)
	}

	wg.Wait()
	close(out)
}

func drainLines(lines <-chan streamLine) {
	for range lines {
	}
}

// stopContainer sends SIGINT with a short grace period. Used on
// cancellation; errors are logged only.
func (e *Executor) stopContainer(containerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), (stopGraceSeconds+2)*time.Second)
	defer cancel()

	timeout := stopGraceSeconds
	if err := e.cli.ContainerStop(ctx, containerID, container.StopOptions{
		Signal:  "SIGINT",
		Timeout: &timeout,
	}); err != nil {
		logging.Warn("stop container %s: %v", shortID(containerID), err)
	}
}

func (e *Executor) removeContainer(containerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.cli.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: true}); err != nil {
		logging.Warn("remove container %s: %v", shortID(containerID), err)
	}
}

// CleanupContainers stops and force-removes each container. Errors are
// logged, never propagated.
func (e *Executor) CleanupContainers(ctx context.Context, ids []string) {
	for _, id := range ids {
		timeout := stopGraceSeconds
		if err := e.cli.ContainerStop(ctx, id, container.StopOptions{Timeout: &timeout}); err != nil {
			logging.Warn("stop container %s: %v", shortID(id), err)
		}
		if err := e.cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: true}); err != nil {
			logging.Warn("remove container %s: %v", shortID(id), err)
		}
	}
}
