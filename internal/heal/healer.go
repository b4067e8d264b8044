// Package heal retries failed Blender code through an LLM repair loop.
package heal

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"blendermcp/internal/llm"
)

// DefaultMaxRepairs bounds the repair loop. One initial run plus at
// most this many corrected snippets.
const DefaultMaxRepairs = 2

const systemPrompt = `You are a Blender Python (bpy) expert. You will be given a Python snippet that failed inside Blender and the error it produced. Return ONLY the corrected Python code, with no explanation, no markdown fences, and no commentary. The corrected code must be a complete replacement for the failed snippet.`

// Runner executes a snippet in Blender and returns its printed result.
type Runner func(ctx context.Context, code string) (string, error)

// Attempt records one execution inside the repair loop.
type Attempt struct {
	Code  string
	Error string
}

// Result is the outcome of a healing run.
type Result struct {
	Output   string
	Code     string // the snippet that finally succeeded
	Healed   bool   // true if a repaired snippet succeeded
	Attempts []Attempt
}

// Healer wraps code execution with bounded LLM repair.
type Healer struct {
	completer  llm.Completer
	maxRepairs int
	log        *zap.Logger
}

// New creates a healer. A nil completer disables repair; Run then
// behaves as a single plain execution.
func New(completer llm.Completer, maxRepairs int, log *zap.Logger) *Healer {
	if maxRepairs < 0 {
		maxRepairs = DefaultMaxRepairs
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Healer{
		completer:  completer,
		maxRepairs: maxRepairs,
		log:        log,
	}
}

// Run executes code, repairing and retrying on failure. The returned
// error is the last execution error once repairs are exhausted.
func (h *Healer) Run(ctx context.Context, code string, run Runner) (*Result, error) {
	res := &Result{}

	current := code
	var lastErr error

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		output, err := run(ctx, current)
		if err == nil {
			res.Output = output
			res.Code = current
			res.Healed = attempt > 0
			return res, nil
		}
		lastErr = err
		res.Attempts = append(res.Attempts, Attempt{Code: current, Error: err.Error()})

		if h.completer == nil || attempt >= h.maxRepairs {
			return res, lastErr
		}

		h.log.Info("attempting code repair",
			zap.Int("attempt", attempt+1),
			zap.Int("max_repairs", h.maxRepairs),
			zap.String("error", err.Error()))

		repaired, rerr := h.repair(ctx, current, err.Error())
		if rerr != nil {
			h.log.Warn("code repair failed", zap.Error(rerr))
			return res, lastErr
		}
		if strings.TrimSpace(repaired) == "" {
			return res, lastErr
		}
		current = repaired
	}
}

func (h *Healer) repair(ctx context.Context, code, errText string) (string, error) {
	prompt := fmt.Sprintf("This Blender Python code failed:\n\n%s\n\nError:\n%s\n\nReturn the corrected code.", code, errText)

	reply, err := h.completer.CompleteWithSystem(ctx, systemPrompt, prompt)
	if err != nil {
		return "", err
	}
	return StripFences(reply), nil
}

// StripFences removes a surrounding markdown code fence, if any. Models
// often wrap code in fences despite instructions not to.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) < 2 {
		return s
	}
	// Drop the opening fence (with optional language tag).
	lines = lines[1:]
	// Drop the closing fence if present.
	for i := len(lines) - 1; i >= 0; i-- {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			continue
		}
		if trimmed == "```" {
			lines = lines[:i]
		}
		break
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
