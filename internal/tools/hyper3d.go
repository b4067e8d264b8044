package tools

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type hyper3dTextArgs struct {
	TextPrompt    string    `json:"text_prompt" jsonschema:"a short description of the desired model in English"`
	BBoxCondition []float64 `json:"bbox_condition,omitempty" jsonschema:"optional list of 3 floats controlling the Length/Width/Height ratio of the model"`
}

type hyper3dImagesArgs struct {
	InputImagePaths []string  `json:"input_image_paths,omitempty" jsonschema:"absolute paths of input images (MAIN_SITE mode)"`
	InputImageURLs  []string  `json:"input_image_urls,omitempty" jsonschema:"URLs of input images (FAL_AI mode)"`
	BBoxCondition   []float64 `json:"bbox_condition,omitempty" jsonschema:"optional list of 3 floats controlling the Length/Width/Height ratio of the model"`
}

type rodinPollArgs struct {
	SubscriptionKey string `json:"subscription_key,omitempty" jsonschema:"the subscription_key given in the generate model step (MAIN_SITE mode)"`
	RequestID       string `json:"request_id,omitempty" jsonschema:"the request_id given in the generate model step (FAL_AI mode)"`
}

type rodinImportArgs struct {
	Name      string `json:"name" jsonschema:"the name of the object in scene"`
	TaskUUID  string `json:"task_uuid,omitempty" jsonschema:"the task_uuid given in the generate model step (MAIN_SITE mode)"`
	RequestID string `json:"request_id,omitempty" jsonschema:"the request_id given in the generate model step (FAL_AI mode)"`
}

func (s *Set) registerHyper3D(server *mcp.Server) {
	addTool(s, server, "get_hyper3d_status",
		"Check if Hyper3D Rodin integration is enabled in Blender. Returns a message indicating whether Hyper3D Rodin features are available.",
		"Error checking Hyper3D status",
		func(ctx context.Context, _ emptyArgs) (string, error) {
			resp, err := s.conn.Send(ctx, "get_hyper3d_status", nil)
			if err != nil {
				return "", err
			}
			m, err := resultMap(resp)
			if err != nil {
				return "", err
			}
			return getString(m, "message"), nil
		})

	addTool(s, server, "generate_hyper3d_model_via_text",
		"Generate a 3D asset using Hyper3D from a text description and import it into Blender. The asset has built-in materials and a normalized size, so re-scaling after generation can be useful.",
		"Error generating Hyper3D task",
		func(ctx context.Context, in hyper3dTextArgs) (string, error) {
			bbox, err := processBBox(in.BBoxCondition)
			if err != nil {
				return "", err
			}
			return s.createRodinJob(ctx, map[string]any{
				"text_prompt":    in.TextPrompt,
				"images":         nil,
				"bbox_condition": bbox,
			})
		})

	addTool(s, server, "generate_hyper3d_model_via_images",
		"Generate a 3D asset using Hyper3D from input images and import it into Blender. Give exactly one of input_image_paths (MAIN_SITE mode) or input_image_urls (FAL_AI mode).",
		"Error generating Hyper3D task",
		s.generateViaImages)

	addTool(s, server, "poll_rodin_job_status",
		"Check if a Hyper3D Rodin generation task is completed. MAIN_SITE mode: pass subscription_key; the task is done when all statuses are Done. FAL_AI mode: pass request_id; the task is done when status is COMPLETED.",
		"Error generating Hyper3D task",
		func(ctx context.Context, in rodinPollArgs) (string, error) {
			params := map[string]any{}
			if in.SubscriptionKey != "" {
				params["subscription_key"] = in.SubscriptionKey
			} else if in.RequestID != "" {
				params["request_id"] = in.RequestID
			}
			resp, err := s.conn.Send(ctx, "poll_rodin_job_status", params)
			if err != nil {
				return "", err
			}
			return prettyResult(resp), nil
		})

	addTool(s, server, "import_generated_asset",
		"Import the asset generated by Hyper3D Rodin after the generation task is completed. Give one of task_uuid (MAIN_SITE mode) or request_id (FAL_AI mode).",
		"Error generating Hyper3D task",
		func(ctx context.Context, in rodinImportArgs) (string, error) {
			params := map[string]any{"name": in.Name}
			if in.TaskUUID != "" {
				params["task_uuid"] = in.TaskUUID
			} else if in.RequestID != "" {
				params["request_id"] = in.RequestID
			}
			resp, err := s.conn.Send(ctx, "import_generated_asset", params)
			if err != nil {
				return "", err
			}
			return prettyResult(resp), nil
		})
}

// processBBox normalizes a bbox ratio to ints 0-100 scaled by the
// largest dimension. Whole-valued inputs pass through unchanged.
func processBBox(bbox []float64) ([]int, error) {
	if len(bbox) == 0 {
		return nil, nil
	}

	allInts := true
	maxVal := bbox[0]
	for _, v := range bbox {
		if v != float64(int(v)) {
			allInts = false
		}
		if v <= 0 {
			return nil, fmt.Errorf("Incorrect number range: bbox must be bigger than zero!")
		}
		if v > maxVal {
			maxVal = v
		}
	}

	out := make([]int, len(bbox))
	if allInts {
		for i, v := range bbox {
			out[i] = int(v)
		}
		return out, nil
	}
	for i, v := range bbox {
		out[i] = int(v / maxVal * 100)
	}
	return out, nil
}

func (s *Set) generateViaImages(ctx context.Context, in hyper3dImagesArgs) (string, error) {
	if in.InputImagePaths != nil && in.InputImageURLs != nil {
		return "Error: Conflict parameters given!", nil
	}
	if in.InputImagePaths == nil && in.InputImageURLs == nil {
		return "Error: No image given!", nil
	}

	var images []any
	if in.InputImagePaths != nil {
		for _, path := range in.InputImagePaths {
			if _, err := os.Stat(path); err != nil {
				return "Error: not all image paths are valid!", nil
			}
		}
		for _, path := range in.InputImagePaths {
			data, err := os.ReadFile(path)
			if err != nil {
				return "", err
			}
			images = append(images, []string{
				filepath.Ext(path),
				base64.StdEncoding.EncodeToString(data),
			})
		}
	} else {
		for _, u := range in.InputImageURLs {
			images = append(images, u)
		}
	}

	bbox, err := processBBox(in.BBoxCondition)
	if err != nil {
		return "", err
	}
	return s.createRodinJob(ctx, map[string]any{
		"text_prompt":    nil,
		"images":         images,
		"bbox_condition": bbox,
	})
}

// truthy reports whether a decoded JSON value is non-zero. The Rodin
// submission marker is a truthy submit_time, not mere key presence.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	default:
		return true
	}
}

// createRodinJob submits the generation job and returns either the
// task handle pair or the raw result when submission failed.
func (s *Set) createRodinJob(ctx context.Context, params map[string]any) (string, error) {
	resp, err := s.conn.Send(ctx, "create_rodin_job", params)
	if err != nil {
		return "", err
	}
	m, err := resultMap(resp)
	if err != nil {
		return "", err
	}

	if truthy(m["submit_time"]) {
		handle := map[string]any{"task_uuid": m["uuid"]}
		if jobs, ok := m["jobs"].(map[string]any); ok {
			handle["subscription_key"] = jobs["subscription_key"]
		}
		data, err := json.Marshal(handle)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	data, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
