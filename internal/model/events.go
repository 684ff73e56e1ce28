package model

// EventKind tags the variant of an inbound CoreEvent (spec.md §3).
type EventKind string

const (
	EventQueryChanged        EventKind = "queryChanged"
	EventItemSelected        EventKind = "itemSelected"
	EventPluginActionInvoked EventKind = "pluginActionInvoked"
	EventFormSubmitted       EventKind = "formSubmitted"
	EventFormSliderChanged   EventKind = "formSliderChanged"
	EventFormSwitchChanged   EventKind = "formSwitchChanged"
	EventSliderCommitted     EventKind = "sliderCommitted"
	EventSwitchToggled       EventKind = "switchToggled"
	EventBack                EventKind = "back"
	EventHome                EventKind = "home"
	EventReindexRequested    EventKind = "reindexRequested"
	EventShutdown            EventKind = "shutdown"
)

// CoreEvent is the tagged union of everything a front-end can send the
// engine. Only the fields relevant to Kind are populated.
type CoreEvent struct {
	Kind EventKind

	Text string // queryChanged

	Key      string // itemSelected
	ActionID string // itemSelected, pluginActionInvoked

	PluginID  string // pluginActionInvoked, reindexRequested (optional)
	Confirmed bool   // pluginActionInvoked

	FormData map[string]interface{} // formSubmitted

	FieldID     string  // formSliderChanged, formSwitchChanged
	SliderValue float64 // formSliderChanged, sliderCommitted
	SwitchValue bool    // formSwitchChanged, switchToggled

	ItemID string // sliderCommitted, switchToggled
}

// UpdateKind tags the variant of an outbound CoreUpdate (spec.md §3).
type UpdateKind string

const (
	UpdateResults UpdateKind = "results"
	UpdatePatch   UpdateKind = "patch"
	UpdateCard    UpdateKind = "card"
	UpdateForm    UpdateKind = "form"
	UpdateExecute UpdateKind = "execute"
	UpdatePrompt  UpdateKind = "prompt"
	UpdateStatus  UpdateKind = "status"
	UpdateError   UpdateKind = "error"
	UpdateNoop    UpdateKind = "noop"
)

// Navigation describes the depth/direction metadata attached to a results
// update.
type Navigation struct {
	Depth     int    `json:"depth"`
	Direction string `json:"direction,omitempty"` // "forward" | "back" | "replace"
}

// ItemPatch is an incremental mutation to a single already-rendered item.
type ItemPatch struct {
	Key   string      `json:"key"`
	Field string      `json:"field"`
	Value interface{} `json:"value"`
}

// CoreUpdate is the tagged union of everything the engine emits back
// through the RPC layer to subscribed front-ends.
type CoreUpdate struct {
	Kind UpdateKind

	// results
	Items       []ResultItem `json:"items,omitempty"`
	Placeholder string       `json:"placeholder,omitempty"`
	InputMode   string       `json:"inputMode,omitempty"`
	ClearInput  bool         `json:"clearInput,omitempty"`
	Context     interface{}  `json:"context,omitempty"`
	Navigation  *Navigation  `json:"navigation,omitempty"`
	PluginActions []Action   `json:"pluginActions,omitempty"`

	// patch
	ItemPatches []ItemPatch `json:"itemPatches,omitempty"`

	// card / form
	CardPayload interface{} `json:"cardPayload,omitempty"`
	FormSpec    interface{} `json:"formSpec,omitempty"`

	// execute
	Command      []string `json:"command,omitempty"`
	EntryPoint   interface{} `json:"entryPoint,omitempty"`
	Notify       string   `json:"notify,omitempty"`
	Sound        string   `json:"sound,omitempty"`
	Close        bool     `json:"close,omitempty"`
	HistoryEntry interface{} `json:"historyEntry,omitempty"`

	// prompt
	PromptText string `json:"promptText,omitempty"`

	// status
	StatusPluginID string  `json:"statusPluginId,omitempty"`
	Chips          []Badge `json:"chips,omitempty"`
	StatusDesc     string  `json:"statusDescription,omitempty"`
	FAB            interface{} `json:"fab,omitempty"`
	Ambient        bool    `json:"ambient,omitempty"`

	// error
	ErrorKind    string `json:"errorKind,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}
