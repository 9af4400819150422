// Package confirm turns a single confirmation modal into an awaitable call.
//
// Call sites block in Bridge.Confirm while exactly one Presenter renders the
// pending prompt. User actions arriving from the presenter side settle the
// request through Resolve or Key.
package confirm

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// Errors returned by Confirm.
var (
	ErrPending = errors.New("another confirmation is pending")
	ErrClosed  = errors.New("confirmation bridge closed")
)

// Default action labels, as shown by the admin console.
const (
	DefaultConfirmLabel = "OK"
	DefaultCancelLabel  = "Отмена"
)

// Request is what the caller asks the user to confirm.
// ReturnFocus names the element that held focus before the dialog opened.
type Request struct {
	Title        string `json:"title"`
	Message      string `json:"message"`
	ConfirmLabel string `json:"confirm_label"`
	CancelLabel  string `json:"cancel_label"`
	ReturnFocus  string `json:"-"`
}

// Prompt is the pending request as rendered by the modal.
type Prompt struct {
	ID uuid.UUID `json:"id"`
	Request
	Focus Control `json:"focus"`
}

// Presenter renders the modal. Its methods are called with the bridge
// locked and must not call back into the Bridge.
type Presenter interface {
	Open(p Prompt)
	Focus(id uuid.UUID, c Control)
	Close(id uuid.UUID, restoreFocus string)
}

type pending struct {
	prompt Prompt
	dialog dialog
	result chan bool
}

// Bridge holds at most one pending confirmation.
type Bridge struct {
	presenter Presenter

	mu      sync.Mutex
	pending *pending
	closed  bool
}

// NewBridge creates a Bridge rendering through p.
func NewBridge(p Presenter) *Bridge {
	if p == nil {
		p = nopPresenter{}
	}
	return &Bridge{presenter: p}
}

// Confirm opens the modal for req and blocks until it is settled.
//
// A second call while a request is pending fails with ErrPending and leaves
// the first request untouched. If ctx ends first the request is settled as
// cancelled and ctx.Err() is returned.
func (b *Bridge) Confirm(ctx context.Context, req Request) (bool, error) {
	if req.ConfirmLabel == "" {
		req.ConfirmLabel = DefaultConfirmLabel
	}
	if req.CancelLabel == "" {
		req.CancelLabel = DefaultCancelLabel
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return false, ErrClosed
	}
	if b.pending != nil {
		b.mu.Unlock()
		return false, ErrPending
	}
	p := &pending{
		prompt: Prompt{ID: uuid.New(), Request: req, Focus: ControlCancel},
		dialog: openDialog(req.ReturnFocus),
		result: make(chan bool, 1),
	}
	b.pending = p
	b.presenter.Open(p.prompt)
	b.mu.Unlock()

	select {
	case ok := <-p.result:
		return ok, nil
	case <-ctx.Done():
		if b.settle(p.prompt.ID, false) {
			<-p.result
			return false, ctx.Err()
		}
		// A user action won the race.
		return <-p.result, nil
	}
}

// Resolve settles the pending request with an explicit confirm (true) or
// cancel (false) click. It reports whether a request was settled.
func (b *Bridge) Resolve(id uuid.UUID, ok bool) bool {
	return b.settle(id, ok)
}

// Key applies a key press to the pending request: Escape cancels, Enter
// confirms, Tab moves focus to the other control. It reports whether the
// key had any effect.
func (b *Bridge) Key(id uuid.UUID, k Key) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	p := b.pending
	if p == nil || p.prompt.ID != id {
		return false
	}
	switch p.dialog.handleKey(k) {
	case keyFocusMoved:
		p.prompt.Focus = p.dialog.focus
		b.presenter.Focus(id, p.dialog.focus)
		return true
	case keyConfirm:
		b.settleLocked(p, true)
		return true
	case keyCancel:
		b.settleLocked(p, false)
		return true
	}
	return false
}

// Pending returns the prompt awaiting an answer, if any.
func (b *Bridge) Pending() (Prompt, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending == nil {
		return Prompt{}, false
	}
	return b.pending.prompt, true
}

// Close tears the bridge down. A pending request resolves to false and
// later Confirm calls fail with ErrClosed.
func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	if b.pending != nil {
		b.settleLocked(b.pending, false)
	}
}

func (b *Bridge) settle(id uuid.UUID, ok bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	p := b.pending
	if p == nil || p.prompt.ID != id {
		return false
	}
	b.settleLocked(p, ok)
	return true
}

func (b *Bridge) settleLocked(p *pending, ok bool) {
	b.pending = nil
	p.result <- ok
	b.presenter.Close(p.prompt.ID, p.dialog.returnFocus)
}

type nopPresenter struct{}

func (nopPresenter) Open(Prompt)              {}
func (nopPresenter) Focus(uuid.UUID, Control) {}
func (nopPresenter) Close(uuid.UUID, string)  {}
