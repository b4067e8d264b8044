package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type hunyuanGenerateArgs struct {
	TextPrompt    string `json:"text_prompt,omitempty" jsonschema:"optional short description of the desired model in English/Chinese"`
	InputImageURL string `json:"input_image_url,omitempty" jsonschema:"optional local or remote url of the input image"`
}

type hunyuanPollArgs struct {
	JobID string `json:"job_id" jsonschema:"the job_id given in the generate model step"`
}

type hunyuanImportArgs struct {
	Name       string `json:"name" jsonschema:"the name of the object in scene"`
	ZipFileURL string `json:"zip_file_url" jsonschema:"the zip_file_url given in the generate model step"`
}

func (s *Set) registerHunyuan(server *mcp.Server) {
	addTool(s, server, "get_hunyuan3d_status",
		"Check if Hunyuan3D integration is enabled in Blender. Returns a message indicating whether Hunyuan3D features are available.",
		"Error checking Hunyuan3D status",
		func(ctx context.Context, _ emptyArgs) (string, error) {
			resp, err := s.conn.Send(ctx, "get_hunyuan3d_status", nil)
			if err != nil {
				return "", err
			}
			m, err := resultMap(resp)
			if err != nil {
				return "", err
			}
			return getString(m, "message"), nil
		})

	addTool(s, server, "generate_hunyuan3d_model",
		"Generate a 3D asset using Hunyuan3D from a text description, an image reference, or both, and import it into Blender. Returns a JSON with job_id (format: job_xxx) while the task is in progress.",
		"Error generating Hunyuan3D task",
		s.hunyuanGenerate)

	addTool(s, server, "poll_hunyuan_job_status",
		"Check if the Hunyuan3D generation task is completed. The task is done if status is DONE; when DONE the response includes ResultFile3Ds with the generated ZIP model path.",
		"Error generating Hunyuan3D task",
		func(ctx context.Context, in hunyuanPollArgs) (string, error) {
			resp, err := s.conn.Send(ctx, "poll_hunyuan_job_status", map[string]any{"job_id": in.JobID})
			if err != nil {
				return "", err
			}
			return prettyResult(resp), nil
		})

	addTool(s, server, "import_generated_asset_hunyuan",
		"Import the asset generated by Hunyuan3D after the generation task is completed.",
		"Error generating Hunyuan3D task",
		func(ctx context.Context, in hunyuanImportArgs) (string, error) {
			params := map[string]any{"name": in.Name}
			if in.ZipFileURL != "" {
				params["zip_file_url"] = in.ZipFileURL
			}
			resp, err := s.conn.Send(ctx, "import_generated_asset_hunyuan", params)
			if err != nil {
				return "", err
			}
			return prettyResult(resp), nil
		})
}

func (s *Set) hunyuanGenerate(ctx context.Context, in hunyuanGenerateArgs) (string, error) {
	resp, err := s.conn.Send(ctx, "create_hunyuan_job", map[string]any{
		"text_prompt": orNil(in.TextPrompt),
		"image":       orNil(in.InputImageURL),
	})
	if err != nil {
		return "", err
	}
	m, err := resultMap(resp)
	if err != nil {
		return "", err
	}

	if response, ok := m["Response"].(map[string]any); ok {
		if jobID, ok := response["JobId"]; ok {
			data, err := json.Marshal(map[string]any{
				"job_id": fmt.Sprintf("job_%v", jobID),
			})
			if err != nil {
				return "", err
			}
			return string(data), nil
		}
	}

	data, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
