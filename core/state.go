package core

// ProviderResult is what a Provider contributes to a State.
type ProviderResult struct {
	Text   string
	Values map[string]any
	Data   map[string]any
}

// StateData holds structured data that is not part of the prompt text.
type StateData struct {
	// Providers maps provider name to that provider's raw data.
	Providers map[string]map[string]any `json:"providers" cbor:"providers"`
	// ActionResults accumulates results produced while dispatching a turn.
	ActionResults []ActionResult `json:"actionResults,omitempty" cbor:"actionResults,omitempty"`
}

// State is the per-turn context composed from providers. It is ephemeral and
// may be rebuilt at any time.
type State struct {
	Values map[string]any `json:"values" cbor:"values"`
	Data   StateData      `json:"data" cbor:"data"`
	Text   string         `json:"text" cbor:"text"`
}

// NewState returns an empty State with initialised maps.
func NewState() *State {
	return &State{
		Values: map[string]any{},
		Data:   StateData{Providers: map[string]map[string]any{}},
	}
}

// Clone returns a copy of s whose maps and result slice can be written
// without affecting s. Provider data maps are shared. A nil State clones
// to an empty one.
func (s *State) Clone() *State {
	out := NewState()
	if s == nil {
		return out
	}

	for k, v := range s.Values {
		out.Values[k] = v
	}
	for k, v := range s.Data.Providers {
		out.Data.Providers[k] = v
	}
	out.Data.ActionResults = append([]ActionResult(nil), s.Data.ActionResults...)
	out.Text = s.Text

	return out
}

// ActionResult is the outcome of one action handler invocation.
type ActionResult struct {
	ActionName string         `json:"actionName" cbor:"actionName"`
	Success    bool           `json:"success" cbor:"success"`
	Text       string         `json:"text,omitempty" cbor:"text,omitempty"`
	Values     map[string]any `json:"values,omitempty" cbor:"values,omitempty"`
	Data       map[string]any `json:"data,omitempty" cbor:"data,omitempty"`
	Error      string         `json:"error,omitempty" cbor:"error,omitempty"`
}
