package pdb

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/xhd2015/pdb-mcp/debug/common"
)

const (
	// drainGrace is how long output is still collected after the process
	// exits, for descendants that keep the pipe open.
	drainGrace = 200 * time.Millisecond
	// exitWait bounds the wait for the exit status after the pipe closes.
	exitWait = time.Second
	// reapWait bounds the wait for the process after SIGKILL.
	reapWait = 5 * time.Second
)

// outputBuffer collects everything the debugger writes. Writes never block,
// so the child cannot stall on a full pipe while nobody is reading.
type outputBuffer struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	notify chan struct{} // buffered(1), signaled on every write
	eof    chan struct{} // closed when the pipe is drained
}

func newOutputBuffer() *outputBuffer {
	return &outputBuffer{
		notify: make(chan struct{}, 1),
		eof:    make(chan struct{}),
	}
}

func (b *outputBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	n, err := b.buf.Write(p)
	b.mu.Unlock()
	select {
	case b.notify <- struct{}{}:
	default:
	}
	return n, err
}

// take returns and removes everything buffered so far.
func (b *outputBuffer) take() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.buf.String()
	b.buf.Reset()
	return s
}

// process owns one debugger subprocess. stdout and stderr share a single pipe.
type process struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	out   *outputBuffer

	done     chan struct{} // closed after Wait returns
	exitCode int
	waitErr  error
}

// spawn starts target.Argv with merged output.
func spawn(target common.Target) (*process, error) {
	if len(target.Argv) == 0 {
		return nil, fmt.Errorf("%w: empty command line", common.ErrSpawnFailure)
	}
	if _, err := exec.LookPath(target.Argv[0]); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrSpawnFailure, err)
	}

	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("%w: create pipe: %v", common.ErrSpawnFailure, err)
	}

	cmd := exec.Command(target.Argv[0], target.Argv[1:]...)
	cmd.Dir = target.WorkDir
	cmd.Env = append(os.Environ(), target.Env...)
	cmd.Stdout = w
	cmd.Stderr = w
	cmd.SysProcAttr = sysProcAttr()

	stdin, err := cmd.StdinPipe()
	if err != nil {
		r.Close()
		w.Close()
		return nil, fmt.Errorf("%w: stdin pipe: %v", common.ErrSpawnFailure, err)
	}

	if err := cmd.Start(); err != nil {
		r.Close()
		w.Close()
		return nil, fmt.Errorf("%w: %v", common.ErrSpawnFailure, err)
	}
	// the child holds its own copy of the write end
	w.Close()

	p := &process{
		cmd:   cmd,
		stdin: stdin,
		out:   newOutputBuffer(),
		done:  make(chan struct{}),
	}
	go p.readLoop(r)
	go p.waitLoop()
	return p, nil
}

func (p *process) readLoop(r *os.File) {
	defer close(p.out.eof)
	defer r.Close()
	_, _ = io.Copy(p.out, r)
}

func (p *process) waitLoop() {
	err := p.cmd.Wait()
	p.waitErr = err
	p.exitCode = -1
	if p.cmd.ProcessState != nil {
		p.exitCode = p.cmd.ProcessState.ExitCode()
	}
	close(p.done)
}

func (p *process) pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

func (p *process) exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// exitStatus returns the exit code once the process has been reaped.
func (p *process) exitStatus() (int, bool) {
	if !p.exited() {
		return 0, false
	}
	return p.exitCode, true
}

func (p *process) writeLine(line string) error {
	if _, err := io.WriteString(p.stdin, line+"\n"); err != nil {
		return fmt.Errorf("write command: %w", err)
	}
	return nil
}

// readUntil accumulates output until matcher sees the prompt, the process
// exits, timeout elapses or ctx is done. Output that arrives after a timeout
// stays buffered for the next call.
func (p *process) readUntil(ctx context.Context, matcher PromptMatcher, timeout time.Duration) (string, common.Outcome, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var acc bytes.Buffer
	for {
		acc.WriteString(p.out.take())
		if matcher.MatchPrompt(acc.String()) {
			return acc.String(), common.OutcomePrompt, nil
		}

		select {
		case <-p.out.notify:
		case <-p.out.eof:
			acc.WriteString(p.out.take())
			select {
			case <-p.done:
			case <-time.After(exitWait):
			}
			return acc.String(), common.OutcomeExited, nil
		case <-p.done:
			select {
			case <-p.out.eof:
			case <-time.After(drainGrace):
			}
			acc.WriteString(p.out.take())
			return acc.String(), common.OutcomeExited, nil
		case <-timer.C:
			acc.WriteString(p.out.take())
			if matcher.MatchPrompt(acc.String()) {
				return acc.String(), common.OutcomePrompt, nil
			}
			return acc.String(), common.OutcomeTimeout, nil
		case <-ctx.Done():
			acc.WriteString(p.out.take())
			return acc.String(), common.OutcomeTimeout, ctx.Err()
		}
	}
}

// terminate asks pdb to quit, then escalates to SIGTERM and SIGKILL on the
// whole process group. It reports whether a signal was needed.
func (p *process) terminate(grace time.Duration) bool {
	defer p.stdin.Close()

	if p.exited() {
		return false
	}

	_ = p.writeLine("q")
	if p.waitDone(grace) {
		killGroup(p.pid())
		return false
	}

	_ = terminateGroup(p.pid())
	if !p.waitDone(grace) {
		killGroup(p.pid())
		p.waitDone(reapWait)
	}
	killGroup(p.pid())
	return true
}

func (p *process) waitDone(d time.Duration) bool {
	if d <= 0 {
		return p.exited()
	}
	select {
	case <-p.done:
		return true
	case <-time.After(d):
		return false
	}
}
