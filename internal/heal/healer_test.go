package heal

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	replies []string
	err     error
	prompts []string
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return f.CompleteWithSystem(ctx, "", prompt)
}

func (f *fakeCompleter) CompleteWithSystem(ctx context.Context, system, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", errors.New("no reply configured")
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

func TestRunSucceedsFirstTry(t *testing.T) {
	fc := &fakeCompleter{}
	h := New(fc, 2, nil)

	res, err := h.Run(context.Background(), "print('ok')", func(ctx context.Context, code string) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)

	assert.Equal(t, "ok", res.Output)
	assert.False(t, res.Healed)
	assert.Empty(t, res.Attempts)
	assert.Empty(t, fc.prompts, "LLM should not be consulted on success")
}

func TestRunRepairsOnce(t *testing.T) {
	fc := &fakeCompleter{replies: []string{"print('fixed')"}}
	h := New(fc, 2, nil)

	res, err := h.Run(context.Background(), "print(undefined)", func(ctx context.Context, code string) (string, error) {
		if code == "print('fixed')" {
			return "fixed", nil
		}
		return "", errors.New("NameError: name 'undefined' is not defined")
	})
	require.NoError(t, err)

	assert.Equal(t, "fixed", res.Output)
	assert.Equal(t, "print('fixed')", res.Code)
	assert.True(t, res.Healed)
	require.Len(t, res.Attempts, 1)
	assert.Contains(t, res.Attempts[0].Error, "NameError")

	require.Len(t, fc.prompts, 1)
	assert.Contains(t, fc.prompts[0], "print(undefined)")
	assert.Contains(t, fc.prompts[0], "NameError")
}

func TestRunStopsAfterMaxRepairs(t *testing.T) {
	fc := &fakeCompleter{replies: []string{"try1", "try2", "try3"}}
	h := New(fc, 2, nil)

	runs := 0
	_, err := h.Run(context.Background(), "bad", func(ctx context.Context, code string) (string, error) {
		runs++
		return "", errors.New("still broken")
	})
	require.Error(t, err)

	// Initial run plus two repairs.
	assert.Equal(t, 3, runs)
	assert.Len(t, fc.prompts, 2)
}

func TestRunStripsCodeFences(t *testing.T) {
	fc := &fakeCompleter{replies: []string{"```python\nprint('fenced')\n```"}}
	h := New(fc, 2, nil)

	var ran []string
	res, err := h.Run(context.Background(), "bad", func(ctx context.Context, code string) (string, error) {
		ran = append(ran, code)
		if code == "print('fenced')" {
			return "done", nil
		}
		return "", errors.New("boom")
	})
	require.NoError(t, err)

	assert.Equal(t, "done", res.Output)
	assert.Equal(t, []string{"bad", "print('fenced')"}, ran)
}

func TestRunWithNilCompleter(t *testing.T) {
	h := New(nil, 2, nil)

	runs := 0
	_, err := h.Run(context.Background(), "bad", func(ctx context.Context, code string) (string, error) {
		runs++
		return "", errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, 1, runs)
}

func TestRunLLMFailureReturnsOriginalError(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("rate limit exceeded")}
	h := New(fc, 2, nil)

	_, err := h.Run(context.Background(), "bad", func(ctx context.Context, code string) (string, error) {
		return "", errors.New("TypeError: unsupported operand")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TypeError")
}

func TestRunHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := New(&fakeCompleter{}, 2, nil)
	_, err := h.Run(ctx, "code", func(ctx context.Context, code string) (string, error) {
		t.Fatal("runner should not be called after cancellation")
		return "", nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain code", "print('x')", "print('x')"},
		{"python fence", "```python\nprint('x')\n```", "print('x')"},
		{"bare fence", "```\nprint('x')\n```", "print('x')"},
		{"fence with trailing blank", "```python\nprint('x')\n```\n\n", "print('x')"},
		{"no closing fence", "```python\nprint('x')", "print('x')"},
		{"multiline body", "```python\na = 1\nb = 2\n```", "a = 1\nb = 2"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFences(tt.in))
		})
	}
}
