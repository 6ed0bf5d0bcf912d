package automator

import (
	"errors"
	"testing"
)

func TestConnectionErrorMatchesKindAndCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("com call failed")
	err := error(&ConnectionError{Op: "open connection", Kind: ErrSystemConnectFailed, Err: cause})

	if !errors.Is(err, ErrSystemConnectFailed) {
		t.Fatalf("errors.Is kind = false for %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("errors.Is cause = false for %v", err)
	}
	if errors.Is(err, ErrLoginFailed) {
		t.Fatalf("errors.Is matched the wrong kind for %v", err)
	}

	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatal("errors.As failed for ConnectionError")
	}
	want := "sap connection: open connection: system connection failed: com call failed"
	if err.Error() != want {
		t.Fatalf("error string = %q, want %q", err.Error(), want)
	}
}

func TestConnectionErrorWithoutCause(t *testing.T) {
	t.Parallel()

	err := error(&ConnectionError{Op: "get session", Kind: ErrNotConnected})
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("errors.Is = false for %v", err)
	}
	want := "sap connection: get session: not connected"
	if err.Error() != want {
		t.Fatalf("error string = %q, want %q", err.Error(), want)
	}
}

func TestExecutionErrorWrapsCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("transaction se16 aborted")
	err := error(NewExecutionError("run transaction", cause))

	if !errors.Is(err, cause) {
		t.Fatalf("errors.Is cause = false for %v", err)
	}
	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatal("errors.As failed for ExecutionError")
	}
	want := "sap execution: run transaction: transaction se16 aborted"
	if err.Error() != want {
		t.Fatalf("error string = %q, want %q", err.Error(), want)
	}
}

func TestIsAutomatorError(t *testing.T) {
	t.Parallel()

	if !IsAutomatorError(&ConnectionError{Op: "login", Kind: ErrLoginFailed}) {
		t.Fatal("ConnectionError not classified as automator error")
	}
	if !IsAutomatorError(NewExecutionError("run transaction", nil)) {
		t.Fatal("ExecutionError not classified as automator error")
	}
	if IsAutomatorError(errors.New("plain")) {
		t.Fatal("plain error misclassified as automator error")
	}
}
