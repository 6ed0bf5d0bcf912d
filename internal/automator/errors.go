package automator

import (
	"errors"
	"strings"
)

// Kind sentinels for errors.Is matching. Each classified failure produced by
// the automator wraps exactly one of these.
var (
	// ErrInvalidConfig implies a required connection parameter is missing.
	ErrInvalidConfig = errors.New("invalid connection config")

	// ErrEngineUnavailable implies the scripting engine never became
	// reachable, even after launching the executable and polling.
	ErrEngineUnavailable = errors.New("scripting engine unavailable")

	// ErrSystemConnectFailed implies the engine could not open a
	// connection to the named system.
	ErrSystemConnectFailed = errors.New("system connection failed")

	// ErrNoSessionAvailable implies the opened connection exposed no
	// session to log in on.
	ErrNoSessionAvailable = errors.New("no session available")

	// ErrLoginFailed implies the system rejected the credentials or the
	// login screen reported a fatal condition.
	ErrLoginFailed = errors.New("login failed")

	// ErrNotConnected implies the session handle was requested outside
	// the window between a successful connect and the close.
	ErrNotConnected = errors.New("not connected")

	// ErrClosed implies the automator was already torn down; a closed
	// automator cannot be reused.
	ErrClosed = errors.New("automator is closed")
)

// ConnectionError reports a failure while launching, connecting to, or
// logging in to the SAP system. Kind is one of the sentinels above, or nil
// for an unclassified driver failure; Err carries the underlying cause.
// Raw driver errors never cross the automator boundary undecorated.
type ConnectionError struct {
	Op   string
	Kind error
	Err  error
}

func (e *ConnectionError) Error() string {
	parts := []string{"sap connection: " + e.Op}
	if e.Kind != nil {
		parts = append(parts, e.Kind.Error())
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

// Unwrap exposes both the kind sentinel and the cause to errors.Is.
func (e *ConnectionError) Unwrap() []error {
	targets := make([]error, 0, 2)
	if e.Kind != nil {
		targets = append(targets, e.Kind)
	}
	if e.Err != nil {
		targets = append(targets, e.Err)
	}
	return targets
}

// ExecutionError reports a failure while driving transactions after a
// successful login. The connection flow never produces it; it is the error
// type callers running their own transaction automation on the session
// handle are expected to use.
type ExecutionError struct {
	Op  string
	Err error
}

// NewExecutionError wraps a post-login transaction failure.
func NewExecutionError(op string, err error) *ExecutionError {
	return &ExecutionError{Op: op, Err: err}
}

func (e *ExecutionError) Error() string {
	if e.Err == nil {
		return "sap execution: " + e.Op
	}
	return "sap execution: " + e.Op + ": " + e.Err.Error()
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// IsAutomatorError reports whether err originated from this package's
// two-tier taxonomy, letting callers catch broadly across both tiers.
func IsAutomatorError(err error) bool {
	var connErr *ConnectionError
	var execErr *ExecutionError
	return errors.As(err, &connErr) || errors.As(err, &execErr)
}
