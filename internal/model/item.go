// Package model holds the core data types shared by the search engine,
// frecency store, plugin subsystem, and engine: ResultItem and everything
// it is built from (spec.md §3).
package model

// IconKind enumerates the ways an icon can be specified.
type IconKind string

const (
	IconMaterialSymbol IconKind = "materialSymbol"
	IconSystemName     IconKind = "systemName"
	IconText           IconKind = "text"
	IconNone           IconKind = "none"
)

// Icon is a (kind, identifier) pair describing how to render an item's icon.
type Icon struct {
	Kind       IconKind `json:"kind"`
	Identifier string   `json:"identifier,omitempty"`
}

// ItemMode enumerates the display/interaction mode of a ResultItem.
type ItemMode string

const (
	ModeStandard ItemMode = "standard"
	ModeSlider   ItemMode = "slider"
	ModeSwitch   ItemMode = "switch"
	ModeCard     ItemMode = "card"
	ModeInfo     ItemMode = "info"
)

// SliderState carries the extra attributes of a slider-mode item.
type SliderState struct {
	Value        float64 `json:"value"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Step         float64 `json:"step"`
	Unit         string  `json:"unit,omitempty"`
	DisplayValue string  `json:"displayValue,omitempty"`
}

// SwitchState carries the extra attribute of a switch-mode item.
type SwitchState struct {
	Value bool `json:"value"`
}

// Action is a single in-item action (up to four per ResultItem).
type Action struct {
	ID    string `json:"id"`
	Verb  string `json:"verb"`
	Icon  *Icon  `json:"icon,omitempty"`
}

// Badge is a compact status chip rendered alongside an item.
type Badge struct {
	Text string `json:"text"`
	Icon *Icon  `json:"icon,omitempty"`
}

// Widget is an ancillary visual (line graph, gauge, progress bar, preview).
type Widget struct {
	Kind    string      `json:"kind"`
	Payload interface{} `json:"payload,omitempty"`
}

// Provenance records where a ResultItem came from and, for frecency-driven
// picks, why it was suggested.
type Provenance struct {
	PluginID         string `json:"pluginId"`
	IsSuggestion     bool   `json:"isSuggestion,omitempty"`
	SuggestionReason string `json:"suggestionReason,omitempty"`
}

// Execute describes how selecting an item's primary action is carried out.
type Execute struct {
	Command    []string    `json:"command,omitempty"`
	EntryPoint interface{} `json:"entryPoint,omitempty"`
}

// ResultItem is a single displayable entry fused into the engine's ranked
// view (spec.md §3). Every ResultItem carries its plugin id; the engine
// never synthesises one without provenance.
type ResultItem struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Icon        Icon              `json:"icon"`
	Thumbnail   string            `json:"thumbnail,omitempty"`
	Mode        ItemMode          `json:"mode"`
	Slider      *SliderState      `json:"slider,omitempty"`
	Switch      *SwitchState      `json:"switch,omitempty"`
	Actions     []Action          `json:"actions,omitempty"`
	Badges      []Badge           `json:"badges,omitempty"`
	Widgets     []Widget          `json:"widgets,omitempty"`
	Verb        string            `json:"verb,omitempty"`
	Execute     *Execute          `json:"execute,omitempty"`
	IsPluginEntry bool            `json:"isPluginEntry,omitempty"`
	Provenance  Provenance        `json:"provenance"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Key returns the stable identity used for selection lookups: the
// (plugin id, item id) pair joined the same way the index keys it.
func (r ResultItem) Key() string {
	return r.Provenance.PluginID + ":" + r.ID
}
