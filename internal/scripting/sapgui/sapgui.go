// Package sapgui implements the scripting interfaces on top of the SAP GUI
// for Windows COM automation surface. The driver attaches to the scripting
// root of an already running SAP GUI process; it never starts the process
// itself.
package sapgui

import "errors"

var (
	// ErrEngineNotRunning is returned by Attach when no SAP GUI process
	// exposes a scripting root yet.
	ErrEngineNotRunning = errors.New("sap gui scripting engine is not running")

	// ErrUnsupportedPlatform is returned by Attach on non-Windows builds.
	ErrUnsupportedPlatform = errors.New("sap gui scripting requires windows")
)
