package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type switchEditorArgs struct {
	EditorType string `json:"editor_type" jsonschema:"type of editor (VIEW_3D, NODE_EDITOR, PROPERTIES, OUTLINER, TIMELINE, etc.)"`
}

type viewportShadingArgs struct {
	ShadingType string `json:"shading_type" jsonschema:"shading mode (WIREFRAME, SOLID, MATERIAL, RENDERED)"`
}

type viewAngleArgs struct {
	View string `json:"view" jsonschema:"view angle (TOP, BOTTOM, FRONT, BACK, LEFT, RIGHT, CAMERA)"`
}

type createMaterialArgs struct {
	Name           string `json:"name" jsonschema:"name for the new material"`
	AssignToActive *bool  `json:"assign_to_active,omitempty" jsonschema:"whether to assign to the active object (default true)"`
}

type addNodeArgs struct {
	NodeType     string    `json:"node_type" jsonschema:"type of node (e.g. ShaderNodeMixRGB, ShaderNodeTexImage)"`
	Location     []float64 `json:"location,omitempty" jsonschema:"x, y location [x, y]"`
	MaterialName string    `json:"material_name,omitempty" jsonschema:"name of the material (uses active if not specified)"`
}

type removeNodeArgs struct {
	NodeName     string `json:"node_name" jsonschema:"name of the node to remove"`
	MaterialName string `json:"material_name,omitempty" jsonschema:"name of the material (uses active if not specified)"`
}

type setNodeValueArgs struct {
	NodeName     string `json:"node_name" jsonschema:"name of the node"`
	InputName    string `json:"input_name" jsonschema:"name of the input (e.g. 'Base Color', 'Roughness')"`
	Value        any    `json:"value" jsonschema:"value to set (number or array for colors/vectors)"`
	MaterialName string `json:"material_name,omitempty" jsonschema:"name of the material (uses active if not specified)"`
}

type connectNodesArgs struct {
	FromNode     string `json:"from_node" jsonschema:"name of the source node"`
	FromSocket   string `json:"from_socket" jsonschema:"name or index of the output socket"`
	ToNode       string `json:"to_node" jsonschema:"name of the destination node"`
	ToSocket     string `json:"to_socket" jsonschema:"name or index of the input socket"`
	MaterialName string `json:"material_name,omitempty" jsonschema:"name of the material (uses active if not specified)"`
}

type disconnectNodeArgs struct {
	NodeName     string `json:"node_name" jsonschema:"name of the node"`
	SocketName   string `json:"socket_name" jsonschema:"name or index of the socket"`
	SocketType   string `json:"socket_type,omitempty" jsonschema:"'input' or 'output' (default input)"`
	MaterialName string `json:"material_name,omitempty" jsonschema:"name of the material (uses active if not specified)"`
}

type addModifierArgs struct {
	ModifierType string         `json:"modifier_type" jsonschema:"type of modifier (SUBSURF, BEVEL, ARRAY, MIRROR, SOLIDIFY, BOOLEAN)"`
	Name         string         `json:"name,omitempty" jsonschema:"custom name for the modifier"`
	ObjectName   string         `json:"object_name,omitempty" jsonschema:"name of the object (uses active if not specified)"`
	Settings     map[string]any `json:"settings,omitempty" jsonschema:"modifier settings dict"`
}

type modifierArgs struct {
	ModifierName string `json:"modifier_name" jsonschema:"name of the modifier"`
	ObjectName   string `json:"object_name,omitempty" jsonschema:"name of the object (uses active if not specified)"`
}

type modifierSettingsArgs struct {
	ModifierName string         `json:"modifier_name" jsonschema:"name of the modifier"`
	Settings     map[string]any `json:"settings" jsonschema:"settings dict to update"`
	ObjectName   string         `json:"object_name,omitempty" jsonschema:"name of the object (uses active if not specified)"`
}

type selectObjectArgs struct {
	ObjectName string `json:"object_name" jsonschema:"name of the object to select"`
	Extend     bool   `json:"extend,omitempty" jsonschema:"whether to add to existing selection (default false)"`
	Active     *bool  `json:"active,omitempty" jsonschema:"whether to make this the active object (default true)"`
}

type setModeArgs struct {
	Mode       string `json:"mode" jsonschema:"mode to switch to (OBJECT, EDIT, SCULPT, VERTEX_PAINT, WEIGHT_PAINT, TEXTURE_PAINT, POSE)"`
	ObjectName string `json:"object_name,omitempty" jsonschema:"name of the object (uses active if not specified)"`
}

type addPrimitiveArgs struct {
	PrimitiveType string    `json:"primitive_type" jsonschema:"type of primitive (CUBE, SPHERE, CYLINDER, CONE, TORUS, PLANE, CIRCLE, MONKEY, EMPTY)"`
	Location      []float64 `json:"location,omitempty" jsonschema:"location [x, y, z]"`
	Size          float64   `json:"size,omitempty" jsonschema:"size/scale of the primitive"`
	Name          string    `json:"name,omitempty" jsonschema:"custom name for the object"`
}

type transformObjectArgs struct {
	ObjectName string    `json:"object_name,omitempty" jsonschema:"name of the object (uses active if not specified)"`
	Location   []float64 `json:"location,omitempty" jsonschema:"new location [x, y, z]"`
	Rotation   []float64 `json:"rotation,omitempty" jsonschema:"new rotation in degrees [x, y, z]"`
	Scale      []float64 `json:"scale,omitempty" jsonschema:"new scale [x, y, z]"`
}

type deleteObjectArgs struct {
	ObjectName string `json:"object_name,omitempty" jsonschema:"name of the object to delete (uses active if not specified)"`
}

type setFrameArgs struct {
	Frame int `json:"frame" jsonschema:"frame number to set"`
}

type frameRangeArgs struct {
	Start int `json:"start" jsonschema:"start frame"`
	End   int `json:"end" jsonschema:"end frame"`
}

type keyframeArgs struct {
	DataPath   string `json:"data_path" jsonschema:"property path to keyframe (e.g. 'location', 'rotation_euler', 'scale')"`
	Frame      *int   `json:"frame,omitempty" jsonschema:"frame number (uses current frame if not specified)"`
	ObjectName string `json:"object_name,omitempty" jsonschema:"name of the object (uses active if not specified)"`
}

func (s *Set) registerControl(server *mcp.Server) {
	addTool(s, server, "switch_editor",
		"Switch the active editor type in Blender.",
		"Error switching editor",
		func(ctx context.Context, in switchEditorArgs) (string, error) {
			return s.relay(ctx, "switch_editor", map[string]any{"editor_type": in.EditorType})
		})

	addTool(s, server, "set_viewport_shading",
		"Change viewport shading mode.",
		"Error setting viewport shading",
		func(ctx context.Context, in viewportShadingArgs) (string, error) {
			return s.relay(ctx, "set_viewport_shading", map[string]any{"shading_type": in.ShadingType})
		})

	addTool(s, server, "set_view_angle",
		"Set the viewport camera angle.",
		"Error setting view angle",
		func(ctx context.Context, in viewAngleArgs) (string, error) {
			return s.relay(ctx, "set_view_angle", map[string]any{"view": in.View})
		})

	addTool(s, server, "create_material",
		"Create a new material with principled BSDF shader.",
		"Error creating material",
		func(ctx context.Context, in createMaterialArgs) (string, error) {
			assign := true
			if in.AssignToActive != nil {
				assign = *in.AssignToActive
			}
			return s.relay(ctx, "create_material", map[string]any{
				"name":             in.Name,
				"assign_to_active": assign,
			})
		})

	addTool(s, server, "add_node",
		"Add a node to a material's shader node tree.",
		"Error adding node",
		func(ctx context.Context, in addNodeArgs) (string, error) {
			return s.relay(ctx, "add_node", map[string]any{
				"node_type":     in.NodeType,
				"location":      in.Location,
				"material_name": orNil(in.MaterialName),
			})
		})

	addTool(s, server, "remove_node",
		"Remove a node from a material's shader node tree.",
		"Error removing node",
		func(ctx context.Context, in removeNodeArgs) (string, error) {
			return s.relay(ctx, "remove_node", map[string]any{
				"node_name":     in.NodeName,
				"material_name": orNil(in.MaterialName),
			})
		})

	addTool(s, server, "set_node_value",
		"Set an input value on a shader node.",
		"Error setting node value",
		func(ctx context.Context, in setNodeValueArgs) (string, error) {
			return s.relay(ctx, "set_node_value", map[string]any{
				"node_name":     in.NodeName,
				"input_name":    in.InputName,
				"value":         in.Value,
				"material_name": orNil(in.MaterialName),
			})
		})

	addTool(s, server, "connect_nodes",
		"Connect two nodes in a material's shader node tree.",
		"Error connecting nodes",
		func(ctx context.Context, in connectNodesArgs) (string, error) {
			return s.relay(ctx, "connect_nodes", map[string]any{
				"from_node":     in.FromNode,
				"from_socket":   in.FromSocket,
				"to_node":       in.ToNode,
				"to_socket":     in.ToSocket,
				"material_name": orNil(in.MaterialName),
			})
		})

	addTool(s, server, "disconnect_node",
		"Disconnect a node's socket from its connections.",
		"Error disconnecting node",
		func(ctx context.Context, in disconnectNodeArgs) (string, error) {
			if in.SocketType == "" {
				in.SocketType = "input"
			}
			return s.relay(ctx, "disconnect_node", map[string]any{
				"node_name":     in.NodeName,
				"socket_name":   in.SocketName,
				"socket_type":   in.SocketType,
				"material_name": orNil(in.MaterialName),
			})
		})

	addTool(s, server, "add_modifier",
		"Add a modifier to an object.",
		"Error adding modifier",
		func(ctx context.Context, in addModifierArgs) (string, error) {
			settings := in.Settings
			if settings == nil {
				settings = map[string]any{}
			}
			return s.relay(ctx, "add_modifier", map[string]any{
				"modifier_type": in.ModifierType,
				"name":          orNil(in.Name),
				"object_name":   orNil(in.ObjectName),
				"settings":      settings,
			})
		})

	addTool(s, server, "remove_modifier",
		"Remove a modifier from an object.",
		"Error removing modifier",
		func(ctx context.Context, in modifierArgs) (string, error) {
			return s.relay(ctx, "remove_modifier", map[string]any{
				"modifier_name": in.ModifierName,
				"object_name":   orNil(in.ObjectName),
			})
		})

	addTool(s, server, "apply_modifier",
		"Apply a modifier to permanently bake its effect into the mesh.",
		"Error applying modifier",
		func(ctx context.Context, in modifierArgs) (string, error) {
			return s.relay(ctx, "apply_modifier", map[string]any{
				"modifier_name": in.ModifierName,
				"object_name":   orNil(in.ObjectName),
			})
		})

	addTool(s, server, "set_modifier_settings",
		"Update settings on an existing modifier.",
		"Error setting modifier settings",
		func(ctx context.Context, in modifierSettingsArgs) (string, error) {
			return s.relay(ctx, "set_modifier_settings", map[string]any{
				"modifier_name": in.ModifierName,
				"settings":      in.Settings,
				"object_name":   orNil(in.ObjectName),
			})
		})

	addTool(s, server, "select_object",
		"Select an object in the scene.",
		"Error selecting object",
		func(ctx context.Context, in selectObjectArgs) (string, error) {
			active := true
			if in.Active != nil {
				active = *in.Active
			}
			return s.relay(ctx, "select_object", map[string]any{
				"object_name": in.ObjectName,
				"extend":      in.Extend,
				"active":      active,
			})
		})

	addTool(s, server, "set_mode",
		"Set the interaction mode.",
		"Error setting mode",
		func(ctx context.Context, in setModeArgs) (string, error) {
			return s.relay(ctx, "set_mode", map[string]any{
				"mode":        in.Mode,
				"object_name": orNil(in.ObjectName),
			})
		})

	addTool(s, server, "add_primitive",
		"Add a primitive mesh object.",
		"Error adding primitive",
		func(ctx context.Context, in addPrimitiveArgs) (string, error) {
			params := map[string]any{
				"primitive_type": in.PrimitiveType,
				"location":       in.Location,
				"name":           orNil(in.Name),
			}
			if in.Size > 0 {
				params["size"] = in.Size
			}
			return s.relay(ctx, "add_primitive", params)
		})

	addTool(s, server, "transform_object",
		"Transform an object's location, rotation, or scale.",
		"Error transforming object",
		func(ctx context.Context, in transformObjectArgs) (string, error) {
			return s.relay(ctx, "transform_object", map[string]any{
				"object_name": orNil(in.ObjectName),
				"location":    in.Location,
				"rotation":    in.Rotation,
				"scale":       in.Scale,
			})
		})

	addTool(s, server, "delete_object",
		"Delete an object from the scene.",
		"Error deleting object",
		func(ctx context.Context, in deleteObjectArgs) (string, error) {
			return s.relay(ctx, "delete_object", map[string]any{
				"object_name": orNil(in.ObjectName),
			})
		})

	addTool(s, server, "set_frame",
		"Set the current frame in the timeline.",
		"Error setting frame",
		func(ctx context.Context, in setFrameArgs) (string, error) {
			return s.relay(ctx, "set_frame", map[string]any{"frame": in.Frame})
		})

	addTool(s, server, "set_frame_range",
		"Set the animation frame range.",
		"Error setting frame range",
		func(ctx context.Context, in frameRangeArgs) (string, error) {
			return s.relay(ctx, "set_frame_range", map[string]any{
				"start": in.Start,
				"end":   in.End,
			})
		})

	addTool(s, server, "insert_keyframe",
		"Insert a keyframe for an object property.",
		"Error inserting keyframe",
		func(ctx context.Context, in keyframeArgs) (string, error) {
			return s.relay(ctx, "insert_keyframe", map[string]any{
				"data_path":   in.DataPath,
				"frame":       in.Frame,
				"object_name": orNil(in.ObjectName),
			})
		})

	addTool(s, server, "delete_keyframe",
		"Delete a keyframe from an object property.",
		"Error deleting keyframe",
		func(ctx context.Context, in keyframeArgs) (string, error) {
			return s.relay(ctx, "delete_keyframe", map[string]any{
				"data_path":   in.DataPath,
				"frame":       in.Frame,
				"object_name": orNil(in.ObjectName),
			})
		})
}
