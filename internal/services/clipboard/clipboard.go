// Package clipboard hands generated READMEs to the desktop clipboard for `generate --copy`.
package clipboard

import (
	"errors"

	"github.com/atotto/clipboard"
)

// ErrUnavailable reports a host without a usable clipboard utility, such as a headless server.
var ErrUnavailable = errors.New("system clipboard unavailable")

// Copier receives README text after a successful generation.
type Copier interface {
	Copy(readme string) error
}

// SystemClipboard writes README text through github.com/atotto/clipboard.
type SystemClipboard struct{}

// NewSystemClipboard returns the clipboard used by the generate command.
func NewSystemClipboard() *SystemClipboard {
	return &SystemClipboard{}
}

// Copy places readme on the clipboard.
func (systemClipboard *SystemClipboard) Copy(readme string) error {
	if clipboard.Unsupported {
		return ErrUnavailable
	}
	return clipboard.WriteAll(readme)
}

var _ Copier = (*SystemClipboard)(nil)
