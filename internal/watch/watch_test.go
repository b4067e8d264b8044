package watch

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blendermcp/internal/bridge"
)

type fakeSource struct {
	mu      sync.Mutex
	results []map[string]any
	errs    []error
	calls   int
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeSource) Send(ctx context.Context, commandType string, params any) (*bridge.Response, error) {
	f.mu.Lock()
	i := f.calls
	f.calls++
	f.mu.Unlock()
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	var result map[string]any
	if i < len(f.results) {
		result = f.results[i]
	} else if len(f.results) > 0 {
		result = f.results[len(f.results)-1]
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return &bridge.Response{Status: "success", Result: raw}, nil
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]any
		want Summary
	}{
		{
			name: "full fields",
			in: map[string]any{
				"name":            "Scene",
				"object_count":    float64(4),
				"materials_count": float64(2),
				"active_object":   "Cube",
			},
			want: Summary{Name: "Scene", Objects: 4, Materials: 2, Active: "Cube"},
		},
		{
			name: "object list fallback",
			in: map[string]any{
				"name":    "Scene",
				"objects": []any{map[string]any{"name": "Cube"}, map[string]any{"name": "Light"}},
			},
			want: Summary{Name: "Scene", Objects: 2},
		},
		{
			name: "active object as map",
			in: map[string]any{
				"active_object": map[string]any{"name": "Suzanne"},
			},
			want: Summary{Active: "Suzanne"},
		},
		{name: "empty", in: map[string]any{}, want: Summary{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, summarize(tt.in))
		})
	}
}

func TestSummaryString(t *testing.T) {
	s := Summary{Name: "Scene", Objects: 3, Materials: 1, Active: "Cube"}
	assert.Equal(t, `scene "Scene": 3 objects, 1 materials, active: Cube`, s.String())

	assert.Contains(t, Summary{Name: "Empty"}.String(), "active: none")
}

type syncBuffer struct {
	mu sync.Mutex
	b  strings.Builder
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestPollerPrintsOnChangeOnly(t *testing.T) {
	src := &fakeSource{results: []map[string]any{
		{"name": "Scene", "object_count": float64(1)},
		{"name": "Scene", "object_count": float64(1)},
		{"name": "Scene", "object_count": float64(2)},
	}}
	out := &syncBuffer{}
	p := NewPoller(src, 5*time.Millisecond, out, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
	}()

	require.Eventually(t, func() bool { return src.callCount() >= 3 }, 2*time.Second, time.Millisecond)
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "2 objects")
	}, 2*time.Second, time.Millisecond)
	cancel()
	<-done

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "1 objects")
	assert.Contains(t, lines[1], "2 objects")
}

func TestPollerSurvivesErrors(t *testing.T) {
	src := &fakeSource{
		errs:    []error{assert.AnError},
		results: []map[string]any{nil, {"name": "Scene", "object_count": float64(1)}},
	}
	out := &syncBuffer{}
	p := NewPoller(src, 5*time.Millisecond, out, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "1 objects")
	}, 2*time.Second, time.Millisecond)
	cancel()
	<-done
}
