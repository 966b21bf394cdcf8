package session

import (
	"context"
	"errors"
	"sync"
)

// ErrNoPendingDialog is returned by Resolve when no dialog is open.
var ErrNoPendingDialog = errors.New("no pending dialog")

// CloseAction is the operation that triggered an arbitration.
type CloseAction int

// Close actions.
const (
	ActionClose CloseAction = iota
	ActionCloseOthers
	ActionCloseAll
	ActionSwitch
)

func (a CloseAction) String() string {
	switch a {
	case ActionClose:
		return "close"
	case ActionCloseOthers:
		return "close-others"
	case ActionCloseAll:
		return "close-all"
	case ActionSwitch:
		return "switch"
	default:
		return "unknown"
	}
}

// Resolution is the user's answer to an unsaved-changes dialog.
type Resolution int

// Resolutions.
const (
	ResolveCancel Resolution = iota
	ResolveSave
	ResolveDiscard
)

func (r Resolution) String() string {
	switch r {
	case ResolveSave:
		return "save"
	case ResolveDiscard:
		return "discard"
	default:
		return "cancel"
	}
}

// DialogState describes the unsaved-changes dialog awaiting resolution.
type DialogState struct {
	Open   bool
	Path   string
	Name   string
	Action CloseAction
}

type dialog struct {
	state DialogState
	done  chan struct{}
	res   Resolution
}

// arbiter owns the single pending-dialog slot. Requests for the path
// already shown join that dialog; requests for other paths wait for the
// slot to free.
type arbiter struct {
	mu      sync.Mutex
	current *dialog
	onOpen  func(DialogState)
}

// await shows a dialog for state and blocks until it is resolved. If ctx
// ends first the dialog is cancelled and ctx.Err() returned.
func (a *arbiter) await(ctx context.Context, state DialogState) (Resolution, error) {
	state.Open = true
	for {
		a.mu.Lock()
		d := a.current
		if d == nil {
			d = &dialog{state: state, done: make(chan struct{})}
			a.current = d
			a.mu.Unlock()

			if a.onOpen != nil {
				a.onOpen(state)
			}
			select {
			case <-d.done:
				return d.res, nil
			case <-ctx.Done():
				a.finish(d, ResolveCancel)
				return ResolveCancel, ctx.Err()
			}
		}
		a.mu.Unlock()

		select {
		case <-d.done:
			if d.state.Path == state.Path {
				return d.res, nil
			}
		case <-ctx.Done():
			return ResolveCancel, ctx.Err()
		}
	}
}

// resolve answers the open dialog.
func (a *arbiter) resolve(res Resolution) (DialogState, error) {
	a.mu.Lock()
	d := a.current
	a.mu.Unlock()
	if d == nil {
		return DialogState{}, ErrNoPendingDialog
	}
	if !a.finish(d, res) {
		return DialogState{}, ErrNoPendingDialog
	}
	return d.state, nil
}

// finish resolves d if it still holds the slot.
func (a *arbiter) finish(d *dialog, res Resolution) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current != d {
		return false
	}
	a.current = nil
	d.res = res
	close(d.done)
	return true
}

func (a *arbiter) pending() (DialogState, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil {
		return DialogState{}, false
	}
	return a.current.state, true
}
