//go:build !windows

package sapgui

import "github.com/sapauto/sapauto/internal/scripting"

// Attach always fails off Windows; the COM automation surface only exists
// there.
func Attach() (scripting.Engine, error) {
	return nil, ErrUnsupportedPlatform
}
