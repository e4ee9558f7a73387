package codegen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"blockpad/internal/workspace"
)

// ─────────────────────────────────────────────────────────────
// Queue — serialized background generation jobs
// ─────────────────────────────────────────────────────────────

// Job asks for one workspace to be regenerated.
type Job struct {
	WorkspaceID string `json:"workspaceId"`
}

// Result is the outcome of a generation job.
type Result struct {
	WorkspaceID string        `json:"workspaceId"`
	Path        string        `json:"path"`
	Status      string        `json:"status"` // "success" | "error"
	Error       string        `json:"error,omitempty"`
	Duration    time.Duration `json:"duration"`
}

// Resolve looks up the live graph for a workspace id. The service layer
// provides this so the queue stays decoupled from workspace lifecycle.
type Resolve func(workspaceID string) (*workspace.Workspace, error)

// Queue runs generation jobs one at a time on a background worker and
// writes each program to <dataDir>/<workspaceID>.lua. Serializing the jobs
// keeps concurrent saves from interleaving writes to the same file.
type Queue struct {
	gen      *Generator
	resolve  Resolve
	dataDir  string
	onResult func(Result)

	jobs   chan Job
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewQueue creates a queue. onResult may be nil.
func NewQueue(resolve Resolve, dataDir string, onResult func(Result)) *Queue {
	return &Queue{
		gen:      NewGenerator(),
		resolve:  resolve,
		dataDir:  dataDir,
		onResult: onResult,
		jobs:     make(chan Job, 64),
	}
}

// Start launches the worker goroutine.
func (q *Queue) Start(ctx context.Context) {
	ctx, q.cancel = context.WithCancel(ctx)
	q.wg.Add(1)
	go q.worker(ctx)
}

// Stop drains the worker and waits for the in-flight job.
func (q *Queue) Stop() {
	if q.cancel != nil {
		q.cancel()
	}
	q.wg.Wait()
}

// Enqueue schedules a generation job. Fails when the queue is saturated
// rather than blocking the caller.
func (q *Queue) Enqueue(workspaceID string) error {
	select {
	case q.jobs <- Job{WorkspaceID: workspaceID}:
		return nil
	default:
		return fmt.Errorf("generation queue is full")
	}
}

// GenerateNow runs one job synchronously, bypassing the queue. The MCP
// tools use this so callers see the result immediately.
func (q *Queue) GenerateNow(workspaceID string) Result {
	return q.run(Job{WorkspaceID: workspaceID})
}

// ProgramPath returns where a workspace's generated program lives.
func (q *Queue) ProgramPath(workspaceID string) string {
	return filepath.Join(q.dataDir, workspaceID+".lua")
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-q.jobs:
			res := q.run(job)
			if q.onResult != nil {
				q.onResult(res)
			}
		}
	}
}

func (q *Queue) run(job Job) Result {
	start := time.Now()
	res := Result{WorkspaceID: job.WorkspaceID}

	ws, err := q.resolve(job.WorkspaceID)
	if err != nil {
		res.Status = "error"
		res.Error = err.Error()
		res.Duration = time.Since(start)
		return res
	}

	source, err := q.gen.Generate(ws)
	if err != nil {
		res.Status = "error"
		res.Error = fmt.Sprintf("generate: %s", err)
		res.Duration = time.Since(start)
		return res
	}

	path := q.ProgramPath(job.WorkspaceID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		res.Status = "error"
		res.Error = err.Error()
		res.Duration = time.Since(start)
		return res
	}
	if err := os.WriteFile(path, []byte(source), 0644); err != nil {
		res.Status = "error"
		res.Error = fmt.Sprintf("write program: %s", err)
		res.Duration = time.Since(start)
		return res
	}

	res.Status = "success"
	res.Path = path
	res.Duration = time.Since(start)
	return res
}
