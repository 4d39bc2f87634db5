package orchestrator

import "github.com/atotto/clipboard"

// Clipboard receives the combined text of a completed run. WriteAll is
// called with the orchestrator's lock held and must not call back into it.
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard writes to the OS clipboard (pbcopy, xclip/xsel/wl-copy or
// the Windows API).
type SystemClipboard struct{}

func (SystemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return ErrClipboardUnsupported
	}
	return clipboard.WriteAll(text)
}
