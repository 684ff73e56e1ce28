package util

// Reserved result item keys the engine handles itself and never forwards
// to a plugin as an ordinary selection (spec.md §4.1).
const (
	KeyBack        = "__back__"
	KeyDismiss     = "__dismiss__"
	KeyPlugin      = "__plugin__"
	KeyFormCancel  = "__form_cancel__"
	KeyEmpty       = "__empty__"
	KeyInfo        = "__info__"
)

// IsReservedKey reports whether key is one of the engine-level reserved ids.
func IsReservedKey(key string) bool {
	switch key {
	case KeyBack, KeyDismiss, KeyPlugin, KeyFormCancel, KeyEmpty, KeyInfo:
		return true
	default:
		return false
	}
}

// Default verbs and icon used when a plugin response omits the optional
// field, per spec.md §4.3 "Missing optional fields use named default
// constants".
const (
	DefaultVerbSelect = "Open"
	DefaultVerbPick   = "Select"
	DefaultIconKind   = "none"
	DefaultPlaceholder = "It's hamr time!"
)
