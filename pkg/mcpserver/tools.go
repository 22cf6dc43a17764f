package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/focusmcp/focusmcp/engine/batch"
	"github.com/focusmcp/focusmcp/engine/core"
	"github.com/focusmcp/focusmcp/engine/omnifocus"
	"github.com/focusmcp/focusmcp/engine/schema"
	"github.com/focusmcp/focusmcp/pkg/logger"
)

// Operations is the single-item surface exposed as tools.
type Operations interface {
	CreateTask(ctx context.Context, in omnifocus.TaskInput) (*omnifocus.Outcome, error)
	CreateProject(ctx context.Context, in omnifocus.ProjectInput) (*omnifocus.Outcome, error)
	CreateFolder(ctx context.Context, in omnifocus.FolderInput) (*omnifocus.Outcome, error)
	CreateTag(ctx context.Context, in omnifocus.TagInput) (*omnifocus.Outcome, error)
	EditTask(ctx context.Context, in omnifocus.EditTaskInput) (*omnifocus.Outcome, error)
	EditProject(ctx context.Context, in omnifocus.EditProjectInput) (*omnifocus.Outcome, error)
	EditFolder(ctx context.Context, in omnifocus.EditFolderInput) (*omnifocus.Outcome, error)
	EditTag(ctx context.Context, in omnifocus.EditTagInput) (*omnifocus.Outcome, error)
	MoveTask(ctx context.Context, in omnifocus.MoveTaskInput) (*omnifocus.Outcome, error)
	MoveProject(ctx context.Context, in omnifocus.MoveContainerInput) (*omnifocus.Outcome, error)
	MoveFolder(ctx context.Context, in omnifocus.MoveContainerInput) (*omnifocus.Outcome, error)
	Delete(ctx context.Context, in omnifocus.DeleteInput) (*omnifocus.Outcome, error)
	AppStatus(ctx context.Context) (*omnifocus.AppStatus, error)
}

// BatchRunner runs batch_create_items.
type BatchRunner interface {
	RunSpecs(ctx context.Context, specs []batch.ItemSpec) *batch.Result
}

type BatchArgs struct {
	Items []batch.ItemSpec `json:"items" jsonschema:"description=Tasks and projects to create. Items may reference each other through tempId and parentTempId"`
}

type StatusArgs struct{}

// toolDef couples a tool's schema with its handler.
type toolDef struct {
	name        string
	description string
	args        any
	readOnly    bool
	destructive bool
	handler     server.ToolHandlerFunc
}

func (s *Server) toolDefs() []toolDef {
	ops := s.ops
	return []toolDef{
		{
			name:        "create_task",
			description: "Create a task in the inbox, a project or under a parent task.",
			args:        &omnifocus.TaskInput{},
			handler:     bind(s, "create_task", ops.CreateTask),
		},
		{
			name:        "create_project",
			description: "Create a project, optionally inside a folder.",
			args:        &omnifocus.ProjectInput{},
			handler:     bind(s, "create_project", ops.CreateProject),
		},
		{
			name:        "create_folder",
			description: "Create a folder at the top level or inside another folder.",
			args:        &omnifocus.FolderInput{},
			handler:     bind(s, "create_folder", ops.CreateFolder),
		},
		{
			name:        "create_tag",
			description: "Create a tag, optionally nested under another tag.",
			args:        &omnifocus.TagInput{},
			handler:     bind(s, "create_tag", ops.CreateTag),
		},
		{
			name:        "edit_task",
			description: "Change a task found by id or name. Only the given fields change; an empty date clears it.",
			args:        &omnifocus.EditTaskInput{},
			handler:     bind(s, "edit_task", ops.EditTask),
		},
		{
			name:        "edit_project",
			description: "Change a project found by id or name.",
			args:        &omnifocus.EditProjectInput{},
			handler:     bind(s, "edit_project", ops.EditProject),
		},
		{
			name:        "edit_folder",
			description: "Rename a folder or change its status.",
			args:        &omnifocus.EditFolderInput{},
			handler:     bind(s, "edit_folder", ops.EditFolder),
		},
		{
			name:        "edit_tag",
			description: "Rename a tag or change its status.",
			args:        &omnifocus.EditTagInput{},
			handler:     bind(s, "edit_tag", ops.EditTag),
		},
		{
			name:        "move_task",
			description: "Move a task to a project, under another task or back to the inbox. Give exactly one destination.",
			args:        &omnifocus.MoveTaskInput{},
			handler:     bind(s, "move_task", ops.MoveTask),
		},
		{
			name:        "move_project",
			description: "Move a project into a folder or to the top level.",
			args:        &omnifocus.MoveContainerInput{},
			handler:     bind(s, "move_project", ops.MoveProject),
		},
		{
			name:        "move_folder",
			description: "Move a folder into another folder or to the top level.",
			args:        &omnifocus.MoveContainerInput{},
			handler:     bind(s, "move_folder", ops.MoveFolder),
		},
		{
			name:        "delete_item",
			description: "Delete a task, project, folder or tag by id or name.",
			args:        &omnifocus.DeleteInput{},
			destructive: true,
			handler:     bind(s, "delete_item", ops.Delete),
		},
		{
			name: "batch_create_items",
			description: "Create many tasks and projects in one call. Items can reference each other before they exist " +
				"through tempId/parentTempId; parents are created first and failures only affect dependent items.",
			args:    &BatchArgs{},
			handler: bind(s, "batch_create_items", s.runBatch),
		},
		{
			name:        "omnifocus_status",
			description: "Report the OmniFocus version and item counts. Useful to check the connection.",
			args:        &StatusArgs{},
			readOnly:    true,
			handler: bind(s, "omnifocus_status", func(ctx context.Context, _ StatusArgs) (*omnifocus.AppStatus, error) {
				return ops.AppStatus(ctx)
			}),
		},
	}
}

func (s *Server) runBatch(ctx context.Context, args BatchArgs) (*batch.Result, error) {
	if s.batch == nil {
		return nil, core.Internal(errors.New("batch engine is not configured"), nil)
	}
	return s.batch.RunSpecs(ctx, args.Items), nil
}

// bind adapts a typed operation into an MCP tool handler: validate the raw
// arguments, decode them into T, run, and encode the result as JSON text.
func bind[T, R any](s *Server, tool string, run func(context.Context, T) (R, error)) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		log := logger.FromContext(ctx)
		args := req.GetArguments()
		if args == nil {
			args = map[string]any{}
		}
		var in T
		if sch, ok := s.schemas[tool]; ok {
			if _, err := sch.Validate(ctx, args); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("invalid arguments for %s: %v", tool, err)), nil
			}
		}
		if err := schema.Decode(args, &in); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments for %s: %v", tool, err)), nil
		}
		out, err := run(ctx, in)
		if err != nil {
			log.Warn("Tool call failed", "tool", tool, "error", err, "code", core.CodeOf(err))
			return mcp.NewToolResultError(err.Error()), nil
		}
		body, err := encodeResult(out)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s result: %w", tool, err)
		}
		result := mcp.NewToolResultText(body)
		if isFailure(out) {
			result.IsError = true
		}
		return result, nil
	}
}

// encodeResult renders v as compact JSON. Cycle paths contain "->", so HTML
// escaping stays off.
func encodeResult(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// isFailure flags domain failures so the agent sees IsError.
func isFailure(v any) bool {
	switch out := v.(type) {
	case *omnifocus.Outcome:
		return out != nil && !out.Success
	case *batch.Result:
		return out != nil && !out.Success
	}
	return false
}
