// Package watch polls the Blender scene and reports changes. Used by
// the watch subcommand to mirror scene state into a terminal while an
// artist works.
package watch

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"blendermcp/internal/bridge"
)

// Source is the bridge surface the poller consumes.
type Source interface {
	Send(ctx context.Context, commandType string, params any) (*bridge.Response, error)
}

// Summary is the condensed scene state printed on change.
type Summary struct {
	Name      string
	Objects   int
	Materials int
	Active    string
}

func (s Summary) String() string {
	active := s.Active
	if active == "" {
		active = "none"
	}
	return fmt.Sprintf("scene %q: %d objects, %d materials, active: %s", s.Name, s.Objects, s.Materials, active)
}

// Poller polls get_scene_info on an interval and writes a one-line
// summary whenever the scene changes.
type Poller struct {
	src      Source
	interval time.Duration
	out      io.Writer
	log      *zap.Logger

	last    Summary
	hasLast bool
}

// NewPoller creates a poller writing summaries to out.
func NewPoller(src Source, interval time.Duration, out io.Writer, log *zap.Logger) *Poller {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Poller{src: src, interval: interval, out: out, log: log}
}

// Run polls until ctx is canceled. Poll errors are logged and retried
// on the next tick so a Blender restart does not kill the loop.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	sum, err := p.fetch(ctx)
	if err != nil {
		p.log.Warn("scene poll failed", zap.Error(err))
		return
	}
	if p.hasLast && sum == p.last {
		return
	}
	p.last = sum
	p.hasLast = true
	fmt.Fprintln(p.out, sum.String())
}

func (p *Poller) fetch(ctx context.Context) (Summary, error) {
	resp, err := p.src.Send(ctx, "get_scene_info", nil)
	if err != nil {
		return Summary{}, err
	}
	if err := resp.Err(); err != nil {
		return Summary{}, err
	}
	m, err := resp.ResultMap()
	if err != nil {
		return Summary{}, err
	}
	return summarize(m), nil
}

// summarize tolerates missing fields: addon versions differ in what
// get_scene_info includes.
func summarize(m map[string]any) Summary {
	sum := Summary{}
	if v, ok := m["name"].(string); ok {
		sum.Name = v
	}
	if v, ok := m["object_count"].(float64); ok {
		sum.Objects = int(v)
	} else if objs, ok := m["objects"].([]any); ok {
		sum.Objects = len(objs)
	}
	if v, ok := m["materials_count"].(float64); ok {
		sum.Materials = int(v)
	}
	if v, ok := m["active_object"].(string); ok {
		sum.Active = v
	} else if obj, ok := m["active_object"].(map[string]any); ok {
		if name, ok := obj["name"].(string); ok {
			sum.Active = name
		}
	}
	return sum
}
