package app

import "fmt"

// ============================================================
// Code generation and program runs
// ============================================================

// GenerateCode queues a background generation job for the workspace. The
// result arrives on the "codegen:result" event.
func (a *App) GenerateCode(workspaceID string) error {
	return a.queue.Enqueue(workspaceID)
}

// ProgramPath returns where the generated program for a workspace lives.
func (a *App) ProgramPath(workspaceID string) string {
	return a.queue.ProgramPath(workspaceID)
}

// RunProgram generates the workspace synchronously and executes the result
// in the PTY. Output streams on "program:data".
func (a *App) RunProgram(workspaceID string) error {
	res := a.queue.GenerateNow(workspaceID)
	if res.Status != "success" {
		return fmt.Errorf("generate: %s", res.Error)
	}
	return a.runner.Run(res.Path)
}

// StopProgram kills the running program.
func (a *App) StopProgram() {
	a.runner.Stop()
}

// ProgramWrite sends input from xterm.js to the PTY.
func (a *App) ProgramWrite(data string) error {
	return a.runner.Write(data)
}

// ProgramResize resizes the PTY.
func (a *App) ProgramResize(cols, rows int) error {
	return a.runner.Resize(uint16(cols), uint16(rows))
}

// IsProgramRunning reports whether a program is active.
func (a *App) IsProgramRunning() bool {
	return a.runner.IsRunning()
}
