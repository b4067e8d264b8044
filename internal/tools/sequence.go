package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"blendermcp/internal/actions"
)

type sequenceArgs struct {
	Actions []actions.Action `json:"actions" jsonschema:"ordered list of actions, each with an 'action' name and optional 'params'"`
}

func (s *Set) registerSequence(server *mcp.Server) {
	addTool(s, server, "execute_action_sequence",
		"Execute an ordered sequence of scene actions in one round trip. "+
			"Each action has a name and optional params. Known actions: "+joinKnown()+". "+
			"Shorthand phrases like 'add cube' or 'edit mode' are also accepted.",
		"Error executing action sequence",
		func(ctx context.Context, in sequenceArgs) (string, error) {
			seq, err := actions.Normalize(in.Actions)
			if err != nil {
				return "", err
			}
			resp, err := actions.Execute(ctx, s.conn, seq)
			if err != nil {
				return "", err
			}
			if err := resp.Err(); err != nil {
				return fmt.Sprintf("Error: %s", respMessage(resp)), nil
			}
			return fmt.Sprintf("Executed %d action(s):\n%s", len(seq), prettyResult(resp)), nil
		})
}

func joinKnown() string {
	known := actions.Known()
	out := ""
	for i, name := range known {
		if i > 0 {
			out += ", "
		}
		out += name
	}
	return out
}
