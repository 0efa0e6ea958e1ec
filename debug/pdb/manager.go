// Package pdb drives a single interactive pdb subprocess: spawning,
// line-based command exchange with prompt detection, breakpoint replay
// and the session state machine.
package pdb

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xhd2015/pdb-mcp/debug/breakpoints"
	"github.com/xhd2015/pdb-mcp/debug/common"
	"github.com/xhd2015/pdb-mcp/debug/pyenv"
	"github.com/xhd2015/pdb-mcp/log"
)

// Options configures a Manager.
type Options struct {
	StartupTimeout        time.Duration
	CommandTimeout        time.Duration
	QuitGrace             time.Duration
	ClearBreakpointsOnEnd bool
	Logger                log.Logger
}

func (o *Options) setDefaults() {
	if o.StartupTimeout <= 0 {
		o.StartupTimeout = 10 * time.Second
	}
	if o.CommandTimeout <= 0 {
		o.CommandTimeout = 5 * time.Second
	}
	if o.QuitGrace < 0 {
		o.QuitGrace = 0
	}
	if o.Logger == nil {
		o.Logger = log.Nop()
	}
}

// session is one debugging attempt. Its process is owned by the Manager
// and never handed out.
type session struct {
	id      string
	request common.StartRequest
	target  common.Target
	matcher PromptMatcher
	proc    *process

	state      common.State
	phase      common.Phase
	lastOutput string
	exitCode   *int
	startedAt  time.Time

	replayPending bool
}

// Manager owns the process-wide debugging session.
// All operations are serialized by mu, which also keeps a command write and
// its read together on the subprocess.
type Manager struct {
	mu       sync.Mutex
	registry *breakpoints.Registry
	resolver pyenv.Resolver
	opts     Options
	logger   log.Logger

	current *session
}

var _ common.SessionManager = (*Manager)(nil)

// NewManager creates a Manager. The registry outlives sessions.
func NewManager(registry *breakpoints.Registry, resolver pyenv.Resolver, opts Options) *Manager {
	opts.setDefaults()
	if registry == nil {
		registry = breakpoints.NewRegistry()
	}
	return &Manager{
		registry: registry,
		resolver: resolver,
		opts:     opts,
		logger:   opts.Logger,
	}
}

// Registry returns the breakpoint registry.
func (m *Manager) Registry() *breakpoints.Registry {
	return m.registry
}

func newSessionID() string {
	return fmt.Sprintf("session-%d", uuid.New().ID())
}

// Start launches a debugger for req. A running session is torn down first,
// but only after req has been validated and resolved.
func (m *Manager) Start(ctx context.Context, req common.StartRequest) (*common.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	target, err := m.resolveTarget(ctx, req)
	if err != nil {
		return nil, err
	}

	return m.relaunchLocked(ctx, req, target)
}

// Restart tears down the current debugger and launches the remembered target again.
func (m *Manager) Restart(ctx context.Context) (*common.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return nil, fmt.Errorf("%w: no previous session to restart, use start_debug first", common.ErrNoActiveSession)
	}
	req := m.current.request
	target, err := m.resolveTarget(ctx, req)
	if err != nil {
		return nil, err
	}

	return m.relaunchLocked(ctx, req, target)
}

// relaunchLocked tears down the current session and launches target. The
// teardown is reported on the result and in the error, whichever comes back.
func (m *Manager) relaunchLocked(ctx context.Context, req common.StartRequest, target common.Target) (*common.Result, error) {
	torn := m.teardownLocked()
	res, err := m.launchLocked(ctx, req, target)
	if res != nil {
		res.TornDown = torn
	}
	if err != nil && torn != nil {
		err = fmt.Errorf("%w (previous session %s was terminated)", err, torn.SessionID)
	}
	return res, err
}

// Send writes one line of debugger syntax verbatim and returns what the
// debugger printed until its next prompt. The registry is not updated from
// raw breakpoint commands.
func (m *Manager) Send(ctx context.Context, command string) (*common.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if strings.ContainsAny(command, "\r\n") {
		return nil, fmt.Errorf("%w: command must be a single line", common.ErrInvalidArgument)
	}
	sess, err := m.liveLocked()
	if err != nil {
		return nil, err
	}

	ex, err := m.exchangeLocked(ctx, sess, command)
	res := m.resultLocked(sess, ex)
	res.UntrackedBreakpoint = IsBreakpointCommand(command)
	if err != nil {
		return res, err
	}
	if ex.Outcome == common.OutcomePrompt && sess.replayPending {
		res.Replayed = m.replayLocked(ctx, sess)
		res.ReplayPending = sess.replayPending
	}
	return res, nil
}

// Examine prints the type, repr and public attributes of name in one exchange.
func (m *Manager) Examine(ctx context.Context, name string) (*common.Result, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, "\r\n") {
		return nil, fmt.Errorf("%w: variable_name must be a non-empty single line", common.ErrInvalidArgument)
	}
	return m.Send(ctx, ExamineCommand(name))
}

// ExamineCommand builds the pdb statement used by Examine.
func ExamineCommand(name string) string {
	return fmt.Sprintf(`!print("Type:", type(%[1]s)); print("Value:", repr(%[1]s)); print("Attributes:", [a for a in dir(%[1]s) if not a.startswith("__")])`, name)
}

// End terminates the debugger. Ending without a running session succeeds.
func (m *Manager) End(ctx context.Context) (*common.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return &common.Result{Output: "No debugging session to end."}, nil
	}
	sess := m.current
	if sess.state != common.StateRunning {
		return &common.Result{SessionID: sess.id, Output: "Debugging session already ended."}, nil
	}

	torn := m.teardownLocked()
	res := &common.Result{
		SessionID: sess.id,
		Output:    "Debugging session ended.",
		ExitCode:  sess.exitCode,
		TornDown:  torn,
	}
	if m.opts.ClearBreakpointsOnEnd {
		if n := m.registry.ClearAll(); n > 0 {
			res.Output += fmt.Sprintf("\nCleared %d breakpoint(s).", n)
		}
	}
	return res, nil
}

// Close tears down any running debugger, for host shutdown.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardownLocked()
	return nil
}

// SetBreakpoint records file:line and, when a debugger is running, sets it
// there too. A breakpoint the debugger rejects is removed again.
func (m *Manager) SetBreakpoint(ctx context.Context, file string, line int) (*common.BreakpointResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, err := m.registry.Set(file, line)
	if err != nil {
		return nil, err
	}
	res := &common.BreakpointResult{File: set.File, Line: line, Lines: set.Lines, AlreadySet: !set.Added}

	sess := m.syncTargetLocked()
	if sess == nil || !set.Added {
		return res, nil
	}

	ex, err := m.exchangeLocked(ctx, sess, breakCommand(set.File, line))
	res.Live = append(res.Live, ex)
	if err != nil {
		return res, err
	}
	if HasPdbError(ex.Output) {
		if _, lines, clearErr := m.registry.Clear(set.File, line); clearErr == nil {
			res.Lines = lines
		}
		return res, fmt.Errorf("%w: debugger rejected breakpoint %s:%d: %s", common.ErrInvalidArgument, set.File, line, strings.TrimSpace(stripPrompt(ex.Output)))
	}
	return res, nil
}

// ClearBreakpoint removes file:line from the registry and the running debugger.
func (m *Manager) ClearBreakpoint(ctx context.Context, file string, line int) (*common.BreakpointResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	normalized, lines, err := m.registry.Clear(file, line)
	if err != nil {
		return nil, err
	}
	res := &common.BreakpointResult{File: normalized, Line: line, Lines: lines}

	sess := m.syncTargetLocked()
	if sess == nil {
		return res, nil
	}
	ex, err := m.exchangeLocked(ctx, sess, clearCommand(normalized, line))
	res.Live = append(res.Live, ex)
	return res, err
}

// ClearAllBreakpoints empties the registry and clears each entry in the
// running debugger.
func (m *Manager) ClearAllBreakpoints(ctx context.Context) (*common.BreakpointResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := m.registry.All()
	res := &common.BreakpointResult{Removed: m.registry.ClearAll()}

	sess := m.syncTargetLocked()
	if sess == nil {
		return res, nil
	}
	for _, bp := range all {
		ex, err := m.exchangeLocked(ctx, sess, clearCommand(bp.File, bp.Line))
		res.Live = append(res.Live, ex)
		if err != nil {
			return res, err
		}
		if ex.Outcome != common.OutcomePrompt {
			break
		}
	}
	return res, nil
}

// ListBreakpoints returns the registry contents.
func (m *Manager) ListBreakpoints() []common.FileBreakpoints {
	return m.registry.List()
}

// Status reports the session without doing any I/O with the debugger.
func (m *Manager) Status() *common.Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := &common.Status{
		State:           common.StateNotStarted,
		BreakpointCount: m.registry.Len(),
	}
	sess := m.current
	if sess == nil {
		return status
	}
	m.refreshLocked(sess)

	target := sess.target
	status.SessionID = sess.id
	status.State = sess.state
	status.Phase = sess.phase
	status.Target = &target
	status.LastOutput = sess.lastOutput
	status.ExitCode = sess.exitCode
	status.StartedAt = sess.startedAt

	if sess.proc != nil && !sess.proc.exited() && processAlive(sess.proc.pid()) {
		if info, err := describeProcess(sess.proc.pid()); err == nil {
			status.Process = info
		} else {
			m.logger.Debugf("failed to read process info for pid %d: %v", sess.proc.pid(), err)
		}
	}
	return status
}

func (m *Manager) resolveTarget(ctx context.Context, req common.StartRequest) (common.Target, error) {
	file, _, err := ValidateStart(req)
	if err != nil {
		return common.Target{}, err
	}
	if m.resolver == nil {
		return common.Target{}, fmt.Errorf("%w: no interpreter resolver configured", common.ErrSpawnFailure)
	}
	env, err := m.resolver.Resolve(ctx, file)
	if err != nil {
		return common.Target{}, err
	}
	return BuildTarget(env, req)
}

func (m *Manager) launchLocked(ctx context.Context, req common.StartRequest, target common.Target) (*common.Result, error) {
	proc, err := spawn(target)
	if err != nil {
		m.logger.Errorf("failed to spawn %s: %v", CommandLine(target.Argv), err)
		return nil, err
	}

	sess := &session{
		id:        newSessionID(),
		request:   req,
		target:    target,
		matcher:   MatcherFor(target),
		proc:      proc,
		state:     common.StateRunning,
		startedAt: time.Now(),
	}
	m.current = sess
	m.logger.Infof("%s: spawned pid %d: %s (workdir %s)", sess.id, proc.pid(), CommandLine(target.Argv), target.WorkDir)

	output, outcome, err := proc.readUntil(ctx, sess.matcher, m.opts.StartupTimeout)
	ex := common.Exchange{Output: output, Outcome: outcome}
	m.applyLocked(sess, ex)

	res := m.resultLocked(sess, ex)
	res.Target = &sess.target
	if err != nil {
		return res, err
	}

	switch {
	case outcome == common.OutcomePrompt:
		res.Replayed = m.replayLocked(ctx, sess)
		res.ReplayPending = sess.replayPending
	case outcome == common.OutcomeTimeout && m.registry.Len() > 0:
		sess.replayPending = true
		res.ReplayPending = true
	}
	return res, nil
}

// exchangeLocked writes command and reads until prompt, exit or timeout,
// then updates the session phase.
func (m *Manager) exchangeLocked(ctx context.Context, sess *session, command string) (common.Exchange, error) {
	ex := common.Exchange{Command: command}

	m.logger.Debugf("%s: send %q", sess.id, command)
	if err := sess.proc.writeLine(command); err != nil {
		m.logger.Warnf("%s: %v", sess.id, err)
		// a broken pipe means the debugger is gone; collect what it left
		output, _, _ := sess.proc.readUntil(ctx, sess.matcher, drainGrace)
		ex.Output = output
		ex.Outcome = common.OutcomeExited
		m.applyLocked(sess, ex)
		return ex, nil
	}

	output, outcome, err := sess.proc.readUntil(ctx, sess.matcher, m.opts.CommandTimeout)
	ex.Output = output
	ex.Outcome = outcome
	if outcome == common.OutcomeTimeout {
		m.logger.Infof("%s: no prompt within %s after %q", sess.id, m.opts.CommandTimeout, command)
	}
	m.applyLocked(sess, ex)
	return ex, err
}

// replayLocked sets every registry breakpoint in a freshly prompted debugger.
func (m *Manager) replayLocked(ctx context.Context, sess *session) []common.Exchange {
	sess.replayPending = false
	var replayed []common.Exchange
	for _, bp := range m.registry.All() {
		ex, err := m.exchangeLocked(ctx, sess, breakCommand(bp.File, bp.Line))
		replayed = append(replayed, ex)
		if err != nil || ex.Outcome != common.OutcomePrompt {
			if ex.Outcome == common.OutcomeTimeout {
				sess.replayPending = true
			}
			break
		}
		if HasPdbError(ex.Output) {
			m.logger.Warnf("%s: replay of %s:%d rejected: %s", sess.id, bp.File, bp.Line, strings.TrimSpace(stripPrompt(ex.Output)))
		}
	}
	if len(replayed) > 0 {
		m.logger.Infof("%s: replayed %d breakpoint(s)", sess.id, len(replayed))
	}
	return replayed
}

// applyLocked moves the session phase according to how an exchange ended.
func (m *Manager) applyLocked(sess *session, ex common.Exchange) {
	sess.lastOutput = ex.Output
	switch ex.Outcome {
	case common.OutcomePrompt:
		sess.phase = common.PhaseAtPrompt
	case common.OutcomeTimeout:
		sess.phase = common.PhaseBusy
	case common.OutcomeExited:
		sess.phase = common.PhaseExited
		if code, ok := sess.proc.exitStatus(); ok {
			sess.exitCode = &code
		}
		m.logger.Infof("%s: debugger exited (pid %d)", sess.id, sess.proc.pid())
	}
}

func (m *Manager) resultLocked(sess *session, ex common.Exchange) *common.Result {
	return &common.Result{
		SessionID:       sess.id,
		Command:         ex.Command,
		Output:          ex.Output,
		Outcome:         ex.Outcome,
		ExitCode:        sess.exitCode,
		ProgramFinished: ProgramFinished(ex.Output),
		ReplayPending:   sess.replayPending,
	}
}

// refreshLocked notices a debugger that died between operations.
func (m *Manager) refreshLocked(sess *session) {
	if sess.state != common.StateRunning || sess.phase == common.PhaseExited {
		return
	}
	if sess.proc != nil && sess.proc.exited() {
		tail := sess.proc.out.take()
		if tail != "" {
			sess.lastOutput += tail
		}
		m.applyLocked(sess, common.Exchange{Output: sess.lastOutput, Outcome: common.OutcomeExited})
	}
}

// liveLocked returns the session if commands can be sent to it.
func (m *Manager) liveLocked() (*session, error) {
	sess := m.current
	if sess == nil || sess.state != common.StateRunning {
		return nil, fmt.Errorf("%w: use start_debug first", common.ErrNoActiveSession)
	}
	m.refreshLocked(sess)
	if sess.phase == common.PhaseExited {
		code := -1
		if sess.exitCode != nil {
			code = *sess.exitCode
		}
		return nil, fmt.Errorf("%w: the debugger has exited (%w), use restart_debug or start_debug", common.ErrNoActiveSession, &common.ExitError{Code: code})
	}
	return sess, nil
}

// syncTargetLocked returns the session a breakpoint change should be sent
// to, or nil if the registry alone is enough: no live debugger, or a replay
// is still pending and will pick the change up.
func (m *Manager) syncTargetLocked() *session {
	sess, err := m.liveLocked()
	if err != nil || sess.replayPending {
		return nil
	}
	return sess
}

// teardownLocked terminates the running session, if any.
func (m *Manager) teardownLocked() *common.Teardown {
	sess := m.current
	if sess == nil || sess.state != common.StateRunning {
		return nil
	}

	torn := &common.Teardown{
		SessionID: sess.id,
		PID:       sess.proc.pid(),
		File:      sess.target.File,
	}
	torn.Killed = sess.proc.terminate(m.opts.QuitGrace)
	if code, ok := sess.proc.exitStatus(); ok {
		sess.exitCode = &code
	}
	if tail := sess.proc.out.take(); tail != "" {
		sess.lastOutput += tail
	}
	sess.state = common.StateTerminated
	sess.phase = common.PhaseNone
	sess.replayPending = false
	m.logger.Infof("%s: terminated pid %d (killed=%v)", sess.id, torn.PID, torn.Killed)
	return torn
}

func breakCommand(file string, line int) string {
	return fmt.Sprintf("b %s:%d", file, line)
}

func clearCommand(file string, line int) string {
	return fmt.Sprintf("cl %s:%d", file, line)
}

// stripPrompt removes a trailing prompt from output.
func stripPrompt(output string) string {
	trimmed := strings.TrimRight(output, " \t\r\n")
	for _, prompt := range []string{"(Pdb)", "(Pdb++)"} {
		if strings.HasSuffix(trimmed, prompt) {
			return strings.TrimSuffix(trimmed, prompt)
		}
	}
	return output
}
