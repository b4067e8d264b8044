package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"blendermcp/internal/heal"
)

type executeCodeArgs struct {
	Code string `json:"code" jsonschema:"the Python code to execute"`
}

func (s *Set) registerCode(server *mcp.Server) {
	addTool(s, server, "execute_blender_code",
		"Execute arbitrary Python code in Blender. Make sure to do it step-by-step by breaking it into smaller chunks.",
		"Error executing code",
		s.executeCode)
}

func (s *Set) executeCode(ctx context.Context, in executeCodeArgs) (string, error) {
	runner := func(ctx context.Context, code string) (string, error) {
		resp, err := s.conn.Send(ctx, "execute_code", map[string]any{"code": code})
		if err != nil {
			return "", err
		}
		if resp.Err() != nil {
			return "", fmt.Errorf("%s", respMessage(resp))
		}
		m, err := resp.ResultMap()
		if err != nil {
			return "", nil
		}
		return getString(m, "result"), nil
	}

	healer := s.currentHealer()
	if healer == nil {
		output, err := runner(ctx, in.Code)
		if err != nil {
			return fmt.Sprintf("Error executing code: %v", err), nil
		}
		return fmt.Sprintf("Code executed successfully: %s", output), nil
	}

	res, err := healer.Run(ctx, in.Code, heal.Runner(runner))
	if err != nil {
		if ctx.Err() != nil {
			return "", err
		}
		if n := len(res.Attempts); n > 1 {
			return fmt.Sprintf("Error executing code after %d repair attempts: %v", n-1, err), nil
		}
		return fmt.Sprintf("Error executing code: %v", err), nil
	}

	if res.Healed {
		return fmt.Sprintf("Code executed successfully after %d repair(s): %s\n\nFinal code:\n%s",
			len(res.Attempts), res.Output, res.Code), nil
	}
	return fmt.Sprintf("Code executed successfully: %s", res.Output), nil
}
