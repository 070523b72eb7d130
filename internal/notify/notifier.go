package notify

import (
	"sync"

	"github.com/gen2brain/beeep"
	"go.uber.org/zap"
)

// Notifier renders descriptors on the platform.
type Notifier interface {
	Show(d Descriptor) error
	Cancel(handle int64) error
}

// Desktop shows notifications through the platform notification service.
type Desktop struct {
	mu    sync.Mutex
	shown map[int64]string // handle -> last body, for replace detection
	log   *zap.Logger
}

// NewDesktop creates a Desktop notifier.
func NewDesktop(log *zap.Logger) *Desktop {
	return &Desktop{
		shown: make(map[int64]string),
		log:   log,
	}
}

// Show presents a descriptor. A repeat of the exact same body on the same
// handle is skipped; the platform notification is already up.
func (n *Desktop) Show(d Descriptor) error {
	n.mu.Lock()
	if prev, ok := n.shown[d.Handle]; ok && prev == d.Body {
		n.mu.Unlock()
		return nil
	}
	n.shown[d.Handle] = d.Body
	n.mu.Unlock()

	n.log.Info("showing notification",
		zap.Int64("handle", d.Handle),
		zap.String("channel", d.Channel),
		zap.Bool("important", d.Important))

	if d.Important {
		return beeep.Alert(d.Title, d.Body, "")
	}
	return beeep.Notify(d.Title, d.Body, "")
}

// Cancel clears the shown state for a handle. The platform backend has no
// dismissal API, so a still-visible notification stays up; a future alert
// on the handle will present again.
func (n *Desktop) Cancel(handle int64) error {
	n.mu.Lock()
	delete(n.shown, handle)
	n.mu.Unlock()
	return nil
}

// Noop is a Notifier that records nothing and shows nothing. Used when the
// platform has no notification service.
type Noop struct{}

func (Noop) Show(Descriptor) error { return nil }
func (Noop) Cancel(int64) error    { return nil }
