package slideview

// Key names understood by HandleKey. Hosts pass the names they receive from
// their input layer; both short and DOM-style arrow names are accepted.
const (
	KeyUp        = "up"
	KeyDown      = "down"
	KeyArrowUp   = "ArrowUp"
	KeyArrowDown = "ArrowDown"
	KeyPlus      = "+"
	KeyEqual     = "="
	KeyMinus     = "-"
	KeyUnderline = "_"
)

// HandleKey runs the action bound to key. handled reports whether the key is
// bound; a bound key is handled even when the action is a no-op or fails, so
// the host can suppress its default behavior. err is the action's error, such
// as ErrNotReady.
func (v *Viewer) HandleKey(key string) (handled bool, err error) {
	var action func() error
	switch key {
	case KeyUp, KeyArrowUp:
		action = v.Previous
	case KeyDown, KeyArrowDown:
		action = v.Next
	case KeyPlus, KeyEqual:
		action = v.ZoomIn
	case KeyMinus, KeyUnderline:
		action = v.ZoomOut
	default:
		return false, nil
	}
	return true, action()
}
