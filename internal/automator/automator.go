// Package automator sequences the lifecycle of one SAP GUI automation
// session: launch or attach to the GUI process, log in, hand out the session
// handle, dismiss incidental popups, and tear the connection down. It is
// single-threaded and fully synchronous; the scripting object model is not
// safe for concurrent access, so use one automator per GUI process.
package automator

import (
	"errors"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sapauto/sapauto/internal/config"
	"github.com/sapauto/sapauto/internal/scripting"
	"github.com/sapauto/sapauto/internal/scripting/sapgui"
)

// Login screen element identifiers, fixed by the SAP GUI scripting object
// model.
const (
	idPopupWindow   = "wnd[1]"
	idClientField   = "wnd[0]/usr/txtRSYST-MANDT"
	idUserField     = "wnd[0]/usr/txtRSYST-BNAME"
	idPasswordField = "wnd[0]/usr/pwdRSYST-BCODE"
	idLanguageField = "wnd[0]/usr/txtRSYST-LANGU"
	idLoginButton   = "wnd[0]/tbar[0]/btn[0]"
	idStatusBar     = "wnd[0]/sbar"
)

const (
	vkeyEnter = 0

	// sessionGraceDelay is the extra wait when a fresh connection has no
	// session yet.
	sessionGraceDelay = 3 * time.Second
	// statusSettleDelay lets the status bar update after the login submit.
	statusSettleDelay = time.Second
)

// Status bar message classes that indicate a failed logon: error, abort,
// exit.
var fatalStatusTypes = map[string]struct{}{"E": {}, "A": {}, "X": {}}

// Dialog texts that mean the logon itself was rejected, as opposed to
// dismissible notices such as the multiple-logon prompt.
var fatalDialogText = regexp.MustCompile(
	`(?i)(password is incorrect|name or password|not authori[sz]ed|logon not possible|too many failed)`,
)

type state int

const (
	stateDisconnected state = iota
	stateConnected
	stateClosed
)

// Automator owns the lifecycle of one automation session. The zero value is
// not usable; construct it with New.
type Automator struct {
	cfg    config.Config
	logger *log.Logger

	attach func() (scripting.Engine, error)
	launch func(path string) error
	sleep  func(time.Duration)

	state   state
	engine  scripting.Engine
	conn    scripting.Connection
	session scripting.Session
}

// Option overrides an Automator collaborator, primarily for tests.
type Option func(*Automator)

// WithAttach overrides how the scripting engine handle is obtained.
func WithAttach(attach func() (scripting.Engine, error)) Option {
	return func(a *Automator) {
		if attach != nil {
			a.attach = attach
		}
	}
}

// WithLaunch overrides how the SAP executable is started.
func WithLaunch(launch func(path string) error) Option {
	return func(a *Automator) {
		if launch != nil {
			a.launch = launch
		}
	}
}

// WithSleep overrides the blocking delay between poll attempts.
func WithSleep(sleep func(time.Duration)) Option {
	return func(a *Automator) {
		if sleep != nil {
			a.sleep = sleep
		}
	}
}

// New stores the configuration and collaborators; it performs no I/O. It
// fails with ErrInvalidConfig when a required parameter is missing.
func New(cfg config.Config, logger *log.Logger, options ...Option) (*Automator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &ConnectionError{Op: "new", Kind: ErrInvalidConfig, Err: err}
	}
	if logger == nil {
		logger = log.Default()
	}

	a := &Automator{
		cfg:    cfg,
		logger: logger,
		attach: sapgui.Attach,
		launch: launchProcess,
		sleep:  time.Sleep,
	}
	for _, option := range options {
		if option == nil {
			continue
		}
		option(a)
	}

	a.logger.Info("automator initialized",
		"system", cfg.System, "client", cfg.Client, "user", cfg.User)
	return a, nil
}

// InitializeConnection obtains the scripting engine (launching the GUI
// process when it is not running), opens the configured system connection,
// logs in on its first session, and returns the session handle. On failure
// the automator stays disconnected with no partial handle retained, and the
// call is safe to retry.
func (a *Automator) InitializeConnection() (scripting.Session, error) {
	switch a.state {
	case stateClosed:
		return nil, &ConnectionError{Op: "initialize", Kind: ErrClosed}
	case stateConnected:
		a.logger.Debug("initialize called while connected, reusing session")
		return a.session, nil
	}

	engine, err := a.obtainEngine()
	if err != nil {
		return nil, err
	}
	a.engine = engine

	conn, err := engine.OpenConnection(a.cfg.System)
	if err != nil {
		a.logger.Error("open connection failed", "system", a.cfg.System, "error", err)
		a.clearHandles()
		return nil, &ConnectionError{Op: "open connection", Kind: ErrSystemConnectFailed, Err: err}
	}
	if conn == nil {
		a.logger.Error("open connection returned no connection", "system", a.cfg.System)
		a.clearHandles()
		return nil, &ConnectionError{Op: "open connection", Kind: ErrSystemConnectFailed}
	}
	a.conn = conn

	session, err := a.firstSession(conn)
	if err != nil {
		a.clearHandles()
		return nil, err
	}

	if err := a.login(session); err != nil {
		a.clearHandles()
		return nil, err
	}

	a.session = session
	a.state = stateConnected
	a.logger.Info("connection initialized", "system", a.cfg.System)
	return session, nil
}

// GetSession returns the stored session handle. It fails with
// ErrNotConnected before a successful InitializeConnection or after
// CloseConnection.
func (a *Automator) GetSession() (scripting.Session, error) {
	if a.state != stateConnected || a.session == nil {
		return nil, &ConnectionError{Op: "get session", Kind: ErrNotConnected}
	}
	return a.session, nil
}

// CheckMessageBox dismisses the active modal dialog, if any, by sending
// Enter, and reports whether one was dismissed. Calling it with no dialog
// present is a no-op; callers loop until it returns false. Failures are
// logged and suppressed.
func (a *Automator) CheckMessageBox(session scripting.Session) bool {
	_, dismissed := a.dismissPopup(session)
	return dismissed
}

// CloseConnection tears the connection down best-effort in order: session
// window, then connection, then the engine reference. Each step is guarded
// individually; failures are logged, never returned. Safe to call more than
// once and safe to call when InitializeConnection never succeeded. The
// automator is closed afterwards and cannot be reused.
func (a *Automator) CloseConnection() {
	if a.state == stateClosed {
		return
	}

	if a.session != nil {
		a.logger.Info("closing session")
		if err := a.session.Close(); err != nil {
			a.logger.Error("close session failed", "error", err)
		}
		a.session = nil
	}
	if a.conn != nil {
		a.logger.Info("closing connection")
		if err := a.conn.Close(); err != nil {
			a.logger.Error("close connection failed", "error", err)
		}
		a.conn = nil
	}
	if a.engine != nil {
		a.engine.Release()
		a.engine = nil
	}

	a.state = stateClosed
	a.logger.Info("connection closed")
}

func (a *Automator) obtainEngine() (scripting.Engine, error) {
	if engine, err := a.attach(); err == nil {
		a.logger.Info("attached to running scripting engine")
		return engine, nil
	}

	a.logger.Info("scripting engine not running, launching", "path", a.cfg.ExePath)
	if err := a.launch(a.cfg.ExePath); err != nil {
		a.logger.Error("launch failed", "path", a.cfg.ExePath, "error", err)
		return nil, &ConnectionError{Op: "launch", Kind: ErrEngineUnavailable, Err: err}
	}

	var lastErr error
	for attempt := 1; attempt <= a.cfg.PollAttempts; attempt++ {
		engine, err := a.attach()
		if err == nil {
			a.logger.Info("scripting engine ready", "attempt", attempt)
			return engine, nil
		}
		lastErr = err
		a.sleep(a.cfg.PollInterval)
	}

	a.logger.Error("scripting engine never became available",
		"attempts", a.cfg.PollAttempts, "interval", a.cfg.PollInterval)
	return nil, &ConnectionError{Op: "wait for engine", Kind: ErrEngineUnavailable, Err: lastErr}
}

func (a *Automator) firstSession(conn scripting.Connection) (scripting.Session, error) {
	count, err := conn.SessionCount()
	if err != nil {
		return nil, &ConnectionError{Op: "count sessions", Kind: ErrNoSessionAvailable, Err: err}
	}
	if count == 0 {
		a.logger.Warn("no session yet, waiting", "system", a.cfg.System)
		a.sleep(sessionGraceDelay)
		count, err = conn.SessionCount()
		if err != nil {
			return nil, &ConnectionError{Op: "count sessions", Kind: ErrNoSessionAvailable, Err: err}
		}
	}
	if count == 0 {
		return nil, &ConnectionError{Op: "first session", Kind: ErrNoSessionAvailable}
	}

	session, err := conn.SessionAt(0)
	if err != nil {
		return nil, &ConnectionError{Op: "first session", Kind: ErrNoSessionAvailable, Err: err}
	}
	a.logger.Info("session obtained")
	return session, nil
}

func (a *Automator) login(session scripting.Session) error {
	clientField, err := session.FindByID(idClientField)
	if err != nil {
		a.logger.Error("standard login screen not detected", "error", err)
		return &ConnectionError{Op: "find client field", Err: err}
	}

	a.logger.Info("logging in", "client", a.cfg.Client, "user", a.cfg.User)
	if err := clientField.SetText(a.cfg.Client); err != nil {
		return &ConnectionError{Op: "set client", Err: err}
	}
	if err := a.setField(session, idUserField, a.cfg.User); err != nil {
		return err
	}
	if err := a.setField(session, idPasswordField, a.cfg.Password); err != nil {
		return err
	}
	if err := a.setField(session, idLanguageField, a.cfg.Language); err != nil {
		return err
	}

	button, err := session.FindByID(idLoginButton)
	if err != nil {
		return &ConnectionError{Op: "find login button", Err: err}
	}
	if err := button.Press(); err != nil {
		return &ConnectionError{Op: "press login button", Err: err}
	}

	a.sleep(statusSettleDelay)
	if err := a.checkLoginStatus(session); err != nil {
		return err
	}

	// Absorb the post-submit popup, if any (wrong password, multiple
	// logon, expiring password notice).
	if text, dismissed := a.dismissPopup(session); dismissed && fatalDialogText.MatchString(text) {
		a.logger.Error("login rejected", "dialog", text)
		return &ConnectionError{Op: "login", Kind: ErrLoginFailed, Err: errors.New(text)}
	}

	a.logger.Info("login complete")
	return nil
}

func (a *Automator) setField(session scripting.Session, id, value string) error {
	elem, err := session.FindByID(id)
	if err != nil {
		return &ConnectionError{Op: "find " + id, Err: err}
	}
	if err := elem.SetText(value); err != nil {
		return &ConnectionError{Op: "set " + id, Err: err}
	}
	return nil
}

func (a *Automator) checkLoginStatus(session scripting.Session) error {
	statusBar, err := session.FindByID(idStatusBar)
	if err != nil {
		return &ConnectionError{Op: "find status bar", Err: err}
	}
	messageType, err := statusBar.MessageType()
	if err != nil {
		return &ConnectionError{Op: "read status bar", Err: err}
	}
	messageType = strings.ToUpper(strings.TrimSpace(messageType))
	if _, fatal := fatalStatusTypes[messageType]; !fatal {
		return nil
	}

	text, _ := statusBar.Text()
	a.logger.Error("login error on status bar", "type", messageType, "text", text)
	return &ConnectionError{Op: "login", Kind: ErrLoginFailed, Err: errors.New(text)}
}

// dismissPopup sends Enter to the wnd[1] modal window when present and
// returns its text. Errors are logged together with the status bar text,
// matching the diagnostic the GUI leaves behind, and suppressed.
func (a *Automator) dismissPopup(session scripting.Session) (string, bool) {
	if session == nil {
		return "", false
	}
	popup, ok := session.TryFindByID(idPopupWindow)
	if !ok {
		return "", false
	}

	if kind, err := popup.Type(); err == nil && kind != "" && !strings.Contains(kind, "Modal") {
		// wnd[1] exists but is not a modal dialog; leave it alone.
		return "", false
	}

	text, _ := popup.Text()
	a.logger.Info("dismissing message box", "text", text)
	if err := popup.SendVKey(vkeyEnter); err != nil {
		a.logger.Error("dismiss message box failed",
			"error", err, "status", a.statusBarText(session))
		return text, false
	}
	return text, true
}

func (a *Automator) statusBarText(session scripting.Session) string {
	statusBar, ok := session.TryFindByID(idStatusBar)
	if !ok {
		return ""
	}
	text, err := statusBar.Text()
	if err != nil {
		return ""
	}
	return text
}

// clearHandles drops partial handles after a failed initialize so the
// automator returns to the disconnected state and can be retried.
func (a *Automator) clearHandles() {
	a.session = nil
	a.conn = nil
	if a.engine != nil {
		a.engine.Release()
		a.engine = nil
	}
	a.state = stateDisconnected
}

func launchProcess(path string) error {
	cmd := exec.Command(path)
	if err := cmd.Start(); err != nil {
		return err
	}
	// The GUI process outlives us; detach instead of waiting.
	return cmd.Process.Release()
}
