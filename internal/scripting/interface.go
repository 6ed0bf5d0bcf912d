// Package scripting defines the consumed surface of the SAP GUI scripting
// engine as narrow Go interfaces. The engine, its connections, sessions, and
// screen elements are all owned by the external GUI process; implementations
// of these interfaces hold non-owning handles into that process.
package scripting

// Element is one addressable control on a session screen, located by its
// scripting identifier (for example "wnd[0]/usr/txtRSYST-BNAME").
type Element interface {
	// Text reads the element's text property.
	Text() (string, error)
	// SetText writes the element's text property.
	SetText(value string) error
	// Press invokes a button press on the element.
	Press() error
	// SendVKey sends a virtual key to the element (0 is Enter).
	SendVKey(key int) error
	// Type reports the scripting type name of the element, such as
	// "GuiModalWindow" for a popup window.
	Type() (string, error)
	// MessageType reports the status bar message class (S, W, E, A, X).
	// Only status bar elements carry this property.
	MessageType() (string, error)
}

// Session is the handle to one logged-in (or logging-in) GUI window context.
// A session is only valid between a successful connect and the close of the
// connection that produced it.
type Session interface {
	// FindByID locates an element by identifier, failing when it is absent.
	FindByID(id string) (Element, error)
	// TryFindByID locates an element by identifier, reporting absence
	// without an error. Used for windows that may legitimately not exist,
	// such as popup dialogs.
	TryFindByID(id string) (Element, bool)
	// Close closes the session's main window.
	Close() error
}

// Connection is one open connection to a named SAP system.
type Connection interface {
	// SessionCount reports how many sessions the connection currently has.
	SessionCount() (int, error)
	// SessionAt returns the session at the given index.
	SessionAt(index int) (Session, error)
	// Close closes the connection and every session under it.
	Close() error
}

// Engine is the scripting root of a running SAP GUI process.
type Engine interface {
	// OpenConnection opens a connection to the system with the given
	// description, as it appears in the SAP Logon connection list.
	OpenConnection(system string) (Connection, error)
	// Release drops the engine handle. The GUI process keeps running.
	Release()
}
