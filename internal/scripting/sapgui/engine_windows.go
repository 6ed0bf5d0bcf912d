//go:build windows

package sapgui

import (
	"errors"
	"fmt"

	ole "github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"

	"github.com/sapauto/sapauto/internal/scripting"
)

const (
	rotWrapperProgID = "SapROTWr.SapROTWrapper"
	rotEntryName     = "SAPGUI"
	mainWindowID     = "wnd[0]"
)

// CoInitialize reports S_FALSE when the thread is already initialized; that
// is not a failure for our purposes.
const sFalse = 0x00000001

func coInit() error {
	err := ole.CoInitialize(0)
	if err == nil {
		return nil
	}
	var oleErr *ole.OleError
	if errors.As(err, &oleErr) && oleErr.Code() == sFalse {
		return nil
	}
	return fmt.Errorf("initialize com: %w", err)
}

// Attach binds to the scripting root of a running SAP GUI process through the
// SAP running-object-table wrapper and returns it as a scripting.Engine.
func Attach() (scripting.Engine, error) {
	if err := coInit(); err != nil {
		return nil, err
	}

	unknown, err := oleutil.CreateObject(rotWrapperProgID)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", rotWrapperProgID, err)
	}
	defer unknown.Release()

	wrapper, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return nil, fmt.Errorf("query rot wrapper dispatch: %w", err)
	}
	defer wrapper.Release()

	entry, err := oleutil.CallMethod(wrapper, "GetROTEntry", rotEntryName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineNotRunning, err)
	}
	guiAuto := entry.ToIDispatch()
	if guiAuto == nil {
		return nil, ErrEngineNotRunning
	}
	defer guiAuto.Release()

	appVar, err := oleutil.CallMethod(guiAuto, "GetScriptingEngine")
	if err != nil {
		return nil, fmt.Errorf("get scripting engine: %w", err)
	}
	app := appVar.ToIDispatch()
	if app == nil {
		return nil, ErrEngineNotRunning
	}

	return &engine{app: app}, nil
}

type engine struct {
	app *ole.IDispatch
}

func (e *engine) OpenConnection(system string) (scripting.Connection, error) {
	v, err := oleutil.CallMethod(e.app, "OpenConnection", system, true)
	if err != nil {
		return nil, fmt.Errorf("open connection %q: %w", system, err)
	}
	disp := v.ToIDispatch()
	if disp == nil {
		return nil, fmt.Errorf("open connection %q: nil connection object", system)
	}
	return &connection{disp: disp}, nil
}

func (e *engine) Release() {
	if e.app != nil {
		e.app.Release()
		e.app = nil
	}
	ole.CoUninitialize()
}

type connection struct {
	disp *ole.IDispatch
}

func (c *connection) SessionCount() (int, error) {
	if c.disp == nil {
		return 0, errors.New("connection is closed")
	}
	sessions, err := oleutil.GetProperty(c.disp, "Sessions")
	if err != nil {
		return 0, fmt.Errorf("get sessions collection: %w", err)
	}
	coll := sessions.ToIDispatch()
	if coll == nil {
		return 0, errors.New("sessions collection unavailable")
	}
	defer coll.Release()

	count, err := oleutil.GetProperty(coll, "Count")
	if err != nil {
		return 0, fmt.Errorf("get session count: %w", err)
	}
	return int(count.Val), nil
}

func (c *connection) SessionAt(index int) (scripting.Session, error) {
	if c.disp == nil {
		return nil, errors.New("connection is closed")
	}
	v, err := oleutil.CallMethod(c.disp, "Children", index)
	if err != nil {
		return nil, fmt.Errorf("get session %d: %w", index, err)
	}
	disp := v.ToIDispatch()
	if disp == nil {
		return nil, fmt.Errorf("get session %d: nil session object", index)
	}
	return &session{disp: disp}, nil
}

func (c *connection) Close() error {
	if c.disp == nil {
		return nil
	}
	_, err := oleutil.CallMethod(c.disp, "CloseConnection")
	c.disp.Release()
	c.disp = nil
	if err != nil {
		return fmt.Errorf("close connection: %w", err)
	}
	return nil
}

type session struct {
	disp *ole.IDispatch
}

func (s *session) FindByID(id string) (scripting.Element, error) {
	if s.disp == nil {
		return nil, errors.New("session is closed")
	}
	v, err := oleutil.CallMethod(s.disp, "FindById", id)
	if err != nil {
		return nil, fmt.Errorf("find element %s: %w", id, err)
	}
	disp := v.ToIDispatch()
	if disp == nil {
		return nil, fmt.Errorf("find element %s: not found", id)
	}
	return &element{disp: disp, id: id}, nil
}

func (s *session) TryFindByID(id string) (scripting.Element, bool) {
	if s.disp == nil {
		return nil, false
	}
	// Second argument false tells the engine not to raise on absence.
	v, err := oleutil.CallMethod(s.disp, "FindById", id, false)
	if err != nil {
		return nil, false
	}
	disp := v.ToIDispatch()
	if disp == nil {
		return nil, false
	}
	return &element{disp: disp, id: id}, true
}

func (s *session) Close() error {
	if s.disp == nil {
		return nil
	}
	var closeErr error
	if v, err := oleutil.CallMethod(s.disp, "FindById", mainWindowID); err == nil {
		if wnd := v.ToIDispatch(); wnd != nil {
			_, closeErr = oleutil.CallMethod(wnd, "Close")
			wnd.Release()
		}
	}
	s.disp.Release()
	s.disp = nil
	if closeErr != nil {
		return fmt.Errorf("close main window: %w", closeErr)
	}
	return nil
}

type element struct {
	disp *ole.IDispatch
	id   string
}

func (el *element) Text() (string, error) {
	v, err := oleutil.GetProperty(el.disp, "Text")
	if err != nil {
		return "", fmt.Errorf("get text of %s: %w", el.id, err)
	}
	return v.ToString(), nil
}

func (el *element) SetText(value string) error {
	if _, err := oleutil.PutProperty(el.disp, "Text", value); err != nil {
		return fmt.Errorf("set text of %s: %w", el.id, err)
	}
	return nil
}

func (el *element) Press() error {
	if _, err := oleutil.CallMethod(el.disp, "Press"); err != nil {
		return fmt.Errorf("press %s: %w", el.id, err)
	}
	return nil
}

func (el *element) SendVKey(key int) error {
	if _, err := oleutil.CallMethod(el.disp, "SendVKey", key); err != nil {
		return fmt.Errorf("send vkey %d to %s: %w", key, el.id, err)
	}
	return nil
}

func (el *element) Type() (string, error) {
	v, err := oleutil.GetProperty(el.disp, "Type")
	if err != nil {
		return "", fmt.Errorf("get type of %s: %w", el.id, err)
	}
	return v.ToString(), nil
}

func (el *element) MessageType() (string, error) {
	v, err := oleutil.GetProperty(el.disp, "MessageType")
	if err != nil {
		return "", fmt.Errorf("get message type of %s: %w", el.id, err)
	}
	return v.ToString(), nil
}
