// Package actions validates and relays ordered action sequences to
// Blender. A sequence is a list of {action, params} descriptors run in
// order; unknown actions are rejected before anything executes.
package actions

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"blendermcp/internal/bridge"
)

// Action is one step of a sequence.
type Action struct {
	Action string         `json:"action"`
	Params map[string]any `json:"params,omitempty"`
}

// sequencable holds the command types the addon accepts inside an
// action sequence. Mirrors the relayed single-command tool surface.
var sequencable = map[string]bool{
	// objects
	"select_object":    true,
	"set_mode":         true,
	"add_primitive":    true,
	"transform_object": true,
	"delete_object":    true,
	// nodes and materials
	"create_material": true,
	"add_node":        true,
	"remove_node":     true,
	"set_node_value":  true,
	"connect_nodes":   true,
	"disconnect_node": true,
	// modifiers
	"add_modifier":          true,
	"remove_modifier":       true,
	"apply_modifier":        true,
	"set_modifier_settings": true,
	// animation
	"set_frame":       true,
	"set_frame_range": true,
	"insert_keyframe": true,
	"delete_keyframe": true,
	// ui
	"switch_editor":        true,
	"set_viewport_shading": true,
	"set_view_angle":       true,
	// code
	"execute_code": true,
}

// aliases maps spoken-style shorthand to concrete actions.
var aliases = map[string]Action{
	"add cube":     {Action: "add_primitive", Params: map[string]any{"primitive_type": "CUBE"}},
	"add sphere":   {Action: "add_primitive", Params: map[string]any{"primitive_type": "SPHERE"}},
	"add cylinder": {Action: "add_primitive", Params: map[string]any{"primitive_type": "CYLINDER"}},
	"add plane":    {Action: "add_primitive", Params: map[string]any{"primitive_type": "PLANE"}},
	"add cone":     {Action: "add_primitive", Params: map[string]any{"primitive_type": "CONE"}},
	"add torus":    {Action: "add_primitive", Params: map[string]any{"primitive_type": "TORUS"}},
	"add monkey":   {Action: "add_primitive", Params: map[string]any{"primitive_type": "MONKEY"}},
	"delete":       {Action: "delete_object"},
	"edit mode":    {Action: "set_mode", Params: map[string]any{"mode": "EDIT"}},
	"object mode":  {Action: "set_mode", Params: map[string]any{"mode": "OBJECT"}},
	"sculpt mode":  {Action: "set_mode", Params: map[string]any{"mode": "SCULPT"}},
	"wireframe":    {Action: "set_viewport_shading", Params: map[string]any{"shading_type": "WIREFRAME"}},
	"solid view":   {Action: "set_viewport_shading", Params: map[string]any{"shading_type": "SOLID"}},
	"rendered":     {Action: "set_viewport_shading", Params: map[string]any{"shading_type": "RENDERED"}},
	"front view":   {Action: "set_view_angle", Params: map[string]any{"view": "FRONT"}},
	"top view":     {Action: "set_view_angle", Params: map[string]any{"view": "TOP"}},
	"side view":    {Action: "set_view_angle", Params: map[string]any{"view": "RIGHT"}},
}

// Resolve maps an action name through the alias table and validates it
// against the sequencable set. Alias params are the base; explicit
// params override them key by key.
func Resolve(a Action) (Action, error) {
	name := strings.ToLower(strings.TrimSpace(a.Action))
	if name == "" {
		return Action{}, fmt.Errorf("action name is empty")
	}

	if alias, ok := aliases[name]; ok {
		merged := make(map[string]any, len(alias.Params)+len(a.Params))
		for k, v := range alias.Params {
			merged[k] = v
		}
		for k, v := range a.Params {
			merged[k] = v
		}
		return Action{Action: alias.Action, Params: merged}, nil
	}

	if !sequencable[name] {
		return Action{}, fmt.Errorf("unknown action %q", a.Action)
	}
	return Action{Action: name, Params: a.Params}, nil
}

// Normalize resolves every action in a sequence, failing on the first
// unknown name. Nothing is executed.
func Normalize(seq []Action) ([]Action, error) {
	if len(seq) == 0 {
		return nil, fmt.Errorf("action sequence is empty")
	}
	out := make([]Action, len(seq))
	for i, a := range seq {
		resolved, err := Resolve(a)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		out[i] = resolved
	}
	return out, nil
}

// Known returns the sorted list of sequencable action names.
func Known() []string {
	names := make([]string, 0, len(sequencable))
	for name := range sequencable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sender relays one command to Blender. *bridge.Conn satisfies it.
type Sender interface {
	Send(ctx context.Context, commandType string, params any) (*bridge.Response, error)
}

// Execute normalizes a sequence and relays it to Blender as a single
// execute_action_sequence command. The addon runs the steps in order
// and stops at the first error.
func Execute(ctx context.Context, conn Sender, seq []Action) (*bridge.Response, error) {
	normalized, err := Normalize(seq)
	if err != nil {
		return nil, err
	}

	steps := make([]map[string]any, len(normalized))
	for i, a := range normalized {
		step := map[string]any{"action": a.Action}
		if len(a.Params) > 0 {
			step["params"] = a.Params
		}
		steps[i] = step
	}

	return conn.Send(ctx, "execute_action_sequence", map[string]any{"actions": steps})
}
