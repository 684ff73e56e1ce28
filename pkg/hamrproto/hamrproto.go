// Package hamrproto defines the JSON-RPC 2.0 method, parameter, and
// result shapes exchanged between a front-end and the server over the
// framed Unix socket (spec.md §6).
package hamrproto

import "github.com/hamr-launcher/hamr/internal/model"

// Method names, one per row of spec.md §6's method catalogue plus the
// slider/switch direct-mutation methods SPEC_FULL.md adds alongside it.
const (
	MethodQuery               = "query"
	MethodSelectItem          = "selectItem"
	MethodInvokePluginAction  = "invokePluginAction"
	MethodSubmitForm          = "submitForm"
	MethodChangeFormSlider    = "changeFormSlider"
	MethodToggleFormSwitch    = "toggleFormSwitch"
	MethodCommitSlider        = "commitSlider"
	MethodToggleSwitch        = "toggleSwitch"
	MethodBack                = "back"
	MethodHome                = "home"
	MethodReindex             = "reindex"
	MethodAudit               = "audit"

	NotificationUpdate = "update"
)

type QueryParams struct {
	Text string `json:"text"`
}

type SelectItemParams struct {
	Key      string `json:"key"`
	ActionID string `json:"actionId,omitempty"`
}

type InvokePluginActionParams struct {
	PluginID  string `json:"pluginId"`
	ActionID  string `json:"actionId"`
	Confirmed bool   `json:"confirmed"`
}

type SubmitFormParams struct {
	Data map[string]interface{} `json:"data"`
}

type ChangeFormSliderParams struct {
	FieldID string  `json:"fieldId"`
	Value   float64 `json:"value"`
}

type ToggleFormSwitchParams struct {
	FieldID string `json:"fieldId"`
	Value   bool   `json:"value"`
}

type CommitSliderParams struct {
	ItemID string  `json:"itemId"`
	Value  float64 `json:"value"`
}

type ToggleSwitchParams struct {
	ItemID string `json:"itemId"`
	Value  bool   `json:"value"`
}

type ReindexParams struct {
	PluginID string `json:"pluginId,omitempty"`
}

// Ack is the trivial acknowledgement result for fire-and-forget methods.
type Ack struct {
	OK bool `json:"ok"`
}

// PluginAuditEntry is one row of the audit method's result.
type PluginAuditEntry struct {
	ID     string   `json:"id"`
	Status string   `json:"status"`
	Issues []string `json:"issues,omitempty"`
	State  string   `json:"state"`
}

type AuditResult struct {
	Plugins []PluginAuditEntry `json:"plugins"`
}

// UpdateNotification is the payload of the `update` notification; kind
// mirrors model.UpdateKind and payload is the CoreUpdate itself.
type UpdateNotification struct {
	Kind    model.UpdateKind `json:"kind"`
	Payload model.CoreUpdate `json:"payload"`
}
