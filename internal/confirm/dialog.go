package confirm

// Control is one of the two focusable dialog actions.
type Control string

const (
	ControlCancel  Control = "cancel"
	ControlConfirm Control = "confirm"
)

// Key is a keyboard key reported by the dialog renderer.
type Key string

const (
	KeyEscape Key = "Escape"
	KeyEnter  Key = "Enter"
	KeyTab    Key = "Tab"
)

// dialog is the focus state of an open confirmation modal. Focus starts on
// cancel and Tab only ever moves it between the two controls.
type dialog struct {
	focus       Control
	returnFocus string
}

func openDialog(returnFocus string) dialog {
	return dialog{focus: ControlCancel, returnFocus: returnFocus}
}

// keyOutcome is what a key press does to the dialog.
type keyOutcome int

const (
	keyIgnored keyOutcome = iota
	keyFocusMoved
	keyConfirm
	keyCancel
)

func (d *dialog) handleKey(k Key) keyOutcome {
	switch k {
	case KeyEscape:
		return keyCancel
	case KeyEnter:
		return keyConfirm
	case KeyTab:
		if d.focus == ControlCancel {
			d.focus = ControlConfirm
		} else {
			d.focus = ControlCancel
		}
		return keyFocusMoved
	}
	return keyIgnored
}
