// Package action dispatches the actions selected by a turn's responses.
//
// In multi-action mode (planning enabled) every action named by every
// response runs in response order. In single-action mode only the first
// action of the first response that names one runs.
//
// Parameter blocks bind per occurrence: the Nth time an action appears in one
// response it receives the Nth block extracted for it from that response's
// payload.
package action
