package pluginproto

import "encoding/json"

// ResponseType tags the variant of a plugin response (spec.md §4.3).
type ResponseType string

const (
	TypeResults      ResponseType = "results"
	TypeUpdate       ResponseType = "update"
	TypeCard         ResponseType = "card"
	TypeExecute      ResponseType = "execute"
	TypeImageBrowser ResponseType = "imageBrowser"
	TypeGridBrowser  ResponseType = "gridBrowser"
	TypeForm         ResponseType = "form"
	TypePrompt       ResponseType = "prompt"
	TypeError        ResponseType = "error"
	TypeNoop         ResponseType = "noop"
	TypeStatus       ResponseType = "status"
	TypeIndex        ResponseType = "index"
)

// RawItem is the wire shape of a ResultItem as emitted by a plugin; its
// field set intentionally mirrors model.ResultItem's JSON tags so decoding
// is a straight json.Unmarshal, with unrecognised enum values converted to
// safe defaults afterwards by the caller (spec.md §4.3 conversion rules).
type RawItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Icon        *RawIcon        `json:"icon,omitempty"`
	Thumbnail   string          `json:"thumbnail,omitempty"`
	Mode        string          `json:"mode,omitempty"`
	Slider      json.RawMessage `json:"slider,omitempty"`
	Switch      json.RawMessage `json:"switch,omitempty"`
	Actions     []RawAction     `json:"actions,omitempty"`
	Badges      []RawBadge      `json:"badges,omitempty"`
	Widgets     []RawWidget     `json:"widgets,omitempty"`
	Verb        string          `json:"verb,omitempty"`
	Execute     *RawExecute     `json:"execute,omitempty"`
	EntryPoint  interface{}     `json:"entryPoint,omitempty"`
	Keywords    []string        `json:"keywords,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type RawIcon struct {
	Kind       string `json:"kind"`
	Identifier string `json:"identifier,omitempty"`
}

type RawAction struct {
	ID   string   `json:"id"`
	Verb string   `json:"verb"`
	Icon *RawIcon `json:"icon,omitempty"`
}

type RawBadge struct {
	Text string   `json:"text"`
	Icon *RawIcon `json:"icon,omitempty"`
}

type RawWidget struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type RawExecute struct {
	Command    []string    `json:"command,omitempty"`
	EntryPoint interface{} `json:"entryPoint,omitempty"`
}

// Response is a single JSON object read from a plugin's stdout. A
// response may carry several optional side-channel fields alongside the
// primary Type-selected payload (spec.md §4.3).
type Response struct {
	Type ResponseType `json:"type"`

	Items []RawItem `json:"items,omitempty"`

	ItemPatches []RawItemPatch `json:"itemPatches,omitempty"`

	CardPayload interface{} `json:"cardPayload,omitempty"`

	Command    []string    `json:"command,omitempty"`
	EntryPoint interface{} `json:"entryPoint,omitempty"`

	FormSpec interface{} `json:"formSpec,omitempty"`

	PromptText string `json:"promptText,omitempty"`

	ErrorKind    string `json:"errorKind,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`

	IndexItems  []RawItem `json:"indexItems,omitempty"`
	IndexMode   IndexMode `json:"indexMode,omitempty"`
	RemovedIDs  []string  `json:"removedIds,omitempty"`

	// side-channel, may accompany any Type
	InputMode       string      `json:"inputMode,omitempty"`
	Placeholder     string      `json:"placeholder,omitempty"`
	ClearInput      bool        `json:"clearInput,omitempty"`
	Context         interface{} `json:"context,omitempty"`
	PluginActions   []RawAction `json:"pluginActions,omitempty"`
	NavigateForward *bool       `json:"navigateForward,omitempty"`
	NavigateBack    bool        `json:"navigateBack,omitempty"`
	NavigationDepth *int        `json:"navigationDepth,omitempty"`
	PollIntervalMS  int         `json:"pollInterval,omitempty"`
	Notify          string      `json:"notify,omitempty"`
	Sound           string      `json:"sound,omitempty"`
	Status          *RawStatus  `json:"status,omitempty"`
	FAB             interface{} `json:"fab,omitempty"`
	Ambient         bool        `json:"ambient,omitempty"`
}

type RawItemPatch struct {
	Key   string      `json:"key"`
	Field string      `json:"field"`
	Value interface{} `json:"value"`
}

type RawStatus struct {
	Badges      []RawBadge `json:"badges,omitempty"`
	Chips       []RawBadge `json:"chips,omitempty"`
	Description string     `json:"description,omitempty"`
	FAB         interface{} `json:"fab,omitempty"`
	Ambient     bool       `json:"ambient,omitempty"`
}
