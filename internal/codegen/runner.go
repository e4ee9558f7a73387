package codegen

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/creack/pty"
)

// ─────────────────────────────────────────────────────────────
// Runner — executes generated programs in a PTY
// ─────────────────────────────────────────────────────────────

// Runner executes a generated Lua program inside a PTY so the frontend
// terminal gets proper line discipline and can send input to the program.
type Runner struct {
	mu      sync.Mutex
	ptmx    *os.File
	cmd     *exec.Cmd
	onData  func(data []byte)
	onExit  func(exitCode int)
	running bool
	lua     string
	// Stored size for the next Run call
	pendingCols uint16
	pendingRows uint16
}

// resolveInterpreter finds the absolute path of the Lua binary.
// macOS GUI apps (like Wails) don't inherit the shell's $PATH,
// so we probe common installation paths as a fallback.
func resolveInterpreter(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	if p, err := exec.LookPath(name); err == nil {
		return p
	}
	candidates := []string{
		filepath.Join("/opt/homebrew/bin", name),
		filepath.Join("/usr/local/bin", name),
		filepath.Join("/run/current-system/sw/bin", name),
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".local/bin", name))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	// Let exec.Command fail with a clear error
	return name
}

// NewRunner creates a runner. The interpreter comes from $BLOCKPAD_LUA,
// falling back to "lua".
func NewRunner(onData func(data []byte), onExit func(exitCode int)) *Runner {
	lua := os.Getenv("BLOCKPAD_LUA")
	if lua == "" {
		lua = "lua"
	}
	return &Runner{
		onData:      onData,
		onExit:      onExit,
		lua:         resolveInterpreter(lua),
		pendingCols: 80,
		pendingRows: 24,
	}
}

// Run starts the program at path. A running program is stopped first.
func (r *Runner) Run(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		r.stopInternal()
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("program not generated yet: %w", err)
	}

	cmd := exec.Command(r.lua, path)
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Cols: r.pendingCols,
		Rows: r.pendingRows,
	})
	if err != nil {
		return fmt.Errorf("start pty: %w", err)
	}

	r.ptmx = ptmx
	r.cmd = cmd
	r.running = true

	// Read PTY output → send to frontend
	go func() {
		buf := make([]byte, 32768)
		for {
			n, err := ptmx.Read(buf)
			if n > 0 {
				data := make([]byte, n)
				copy(data, buf[:n])
				if r.onData != nil {
					r.onData(data)
				}
			}
			if err != nil {
				break
			}
		}

		err := cmd.Wait()
		exitCode := 0
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}

		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
		if r.onExit != nil {
			r.onExit(exitCode)
		}
	}()

	return nil
}

// Write sends input to the running program (keystrokes from xterm.js).
func (r *Runner) Write(data string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running || r.ptmx == nil {
		return fmt.Errorf("no running program")
	}

	_, err := io.WriteString(r.ptmx, data)
	return err
}

// Resize updates the PTY window size.
func (r *Runner) Resize(cols, rows uint16) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pendingCols = cols
	r.pendingRows = rows

	if !r.running || r.ptmx == nil {
		return nil
	}
	return pty.Setsize(r.ptmx, &pty.Winsize{Cols: cols, Rows: rows})
}

// IsRunning reports whether a program is active.
func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Stop kills the running program.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopInternal()
}

func (r *Runner) stopInternal() {
	if r.ptmx != nil {
		r.ptmx.Close()
		r.ptmx = nil
	}
	if r.cmd != nil && r.cmd.Process != nil {
		r.cmd.Process.Kill()
		r.cmd = nil
	}
	r.running = false
}
