package enum

import "encoding/json"

// SessionState is the lifecycle state of an open invoice tab. The transitions
// are EDITING_NEW → CHECKOUT → SAVED_READONLY → EDITING_EXISTING → CHECKOUT →
// SAVED_READONLY (loop); CHECKOUT exits back to the state it was entered from
// on cancel or rejection. Sessions never persist; only invoices do.
type SessionState int

const (
	SessionEditingNew      SessionState = 0
	SessionCheckout        SessionState = 1
	SessionSavedReadonly   SessionState = 2
	SessionEditingExisting SessionState = 3
)

func (s SessionState) String() string {
	names := [...]string{"EditingNew", "Checkout", "SavedReadonly", "EditingExisting"}
	if int(s) < 0 || int(s) >= len(names) {
		return "EditingNew"
	}
	return names[s]
}

func (s SessionState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Editing reports whether line and discount mutations are allowed.
func (s SessionState) Editing() bool {
	return s == SessionEditingNew || s == SessionEditingExisting
}
