package actions

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		in      Action
		want    Action
		wantErr bool
	}{
		{
			name: "plain action passes through",
			in:   Action{Action: "add_primitive", Params: map[string]any{"primitive_type": "CUBE"}},
			want: Action{Action: "add_primitive", Params: map[string]any{"primitive_type": "CUBE"}},
		},
		{
			name: "alias resolves with params",
			in:   Action{Action: "add cube"},
			want: Action{Action: "add_primitive", Params: map[string]any{"primitive_type": "CUBE"}},
		},
		{
			name: "alias case insensitive",
			in:   Action{Action: "Add Cube"},
			want: Action{Action: "add_primitive", Params: map[string]any{"primitive_type": "CUBE"}},
		},
		{
			name: "explicit params override alias params",
			in:   Action{Action: "add cube", Params: map[string]any{"location": []any{1.0, 2.0, 3.0}}},
			want: Action{Action: "add_primitive", Params: map[string]any{
				"primitive_type": "CUBE",
				"location":       []any{1.0, 2.0, 3.0},
			}},
		},
		{
			name: "mode alias",
			in:   Action{Action: "edit mode"},
			want: Action{Action: "set_mode", Params: map[string]any{"mode": "EDIT"}},
		},
		{
			name: "view alias uses the view param",
			in:   Action{Action: "front view"},
			want: Action{Action: "set_view_angle", Params: map[string]any{"view": "FRONT"}},
		},
		{
			name: "side view maps to RIGHT",
			in:   Action{Action: "side view"},
			want: Action{Action: "set_view_angle", Params: map[string]any{"view": "RIGHT"}},
		},
		{
			name:    "unknown action rejected",
			in:      Action{Action: "summon_dragon"},
			wantErr: true,
		},
		{
			name:    "empty name rejected",
			in:      Action{Action: "  "},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Resolve mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizeRejectsBeforeExecution(t *testing.T) {
	_, err := Normalize([]Action{
		{Action: "add cube"},
		{Action: "not_a_thing"},
		{Action: "delete_object"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "action 1")
	assert.Contains(t, err.Error(), "not_a_thing")
}

func TestNormalizeEmptySequence(t *testing.T) {
	_, err := Normalize(nil)
	assert.Error(t, err)
}

func TestNormalizeResolvesAll(t *testing.T) {
	out, err := Normalize([]Action{
		{Action: "add cube"},
		{Action: "transform_object", Params: map[string]any{"location": []any{0.0, 0.0, 2.0}}},
		{Action: "wireframe"},
	})
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, "add_primitive", out[0].Action)
	assert.Equal(t, "transform_object", out[1].Action)
	assert.Equal(t, "set_viewport_shading", out[2].Action)
}

func TestKnownIsSorted(t *testing.T) {
	names := Known()
	require.NotEmpty(t, names)
	for i := 1; i < len(names); i++ {
		assert.LessOrEqual(t, names[i-1], names[i])
	}
	assert.Contains(t, names, "add_primitive")
	assert.Contains(t, names, "execute_code")
}
