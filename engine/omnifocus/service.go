package omnifocus

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"

	"github.com/focusmcp/focusmcp/engine/automation"
	"github.com/focusmcp/focusmcp/engine/core"
	"github.com/focusmcp/focusmcp/pkg/logger"
)

// Service performs single-item operations against OmniFocus.
// Failures OmniFocus reports (not found, bad dates) come back as an
// unsuccessful Outcome; only channel failures are returned as errors.
type Service struct {
	exec     automation.Executor
	scripts  *ScriptBuilder
	validate *validator.Validate
}

func NewService(exec automation.Executor) (*Service, error) {
	if exec == nil {
		return nil, errors.New("omnifocus: executor is required")
	}
	scripts, err := NewScriptBuilder()
	if err != nil {
		return nil, fmt.Errorf("omnifocus: %w", err)
	}
	return &Service{exec: exec, scripts: scripts, validate: validator.New()}, nil
}

func (s *Service) CreateTask(ctx context.Context, in TaskInput) (*Outcome, error) {
	return s.mutate(ctx, opCreateTask, &in)
}

func (s *Service) CreateProject(ctx context.Context, in ProjectInput) (*Outcome, error) {
	return s.mutate(ctx, opCreateProject, &in)
}

func (s *Service) CreateFolder(ctx context.Context, in FolderInput) (*Outcome, error) {
	return s.mutate(ctx, opCreateFolder, &in)
}

func (s *Service) CreateTag(ctx context.Context, in TagInput) (*Outcome, error) {
	return s.mutate(ctx, opCreateTag, &in)
}

func (s *Service) EditTask(ctx context.Context, in EditTaskInput) (*Outcome, error) {
	return s.mutate(ctx, opEditTask, &in)
}

func (s *Service) EditProject(ctx context.Context, in EditProjectInput) (*Outcome, error) {
	return s.mutate(ctx, opEditProject, &in)
}

func (s *Service) EditFolder(ctx context.Context, in EditFolderInput) (*Outcome, error) {
	return s.mutate(ctx, opEditFolder, &in)
}

func (s *Service) EditTag(ctx context.Context, in EditTagInput) (*Outcome, error) {
	return s.mutate(ctx, opEditTag, &in)
}

func (s *Service) MoveTask(ctx context.Context, in MoveTaskInput) (*Outcome, error) {
	n := countSet(in.ToProjectID != "" || in.ToProjectName != "", in.ToParentTaskID != "", in.ToInbox)
	if n != 1 {
		return nil, core.InvalidArgument(
			errors.New("exactly one destination is required: project, parent task or inbox"),
			map[string]any{"destinations": n},
		)
	}
	return s.mutate(ctx, opMoveTask, &in)
}

func (s *Service) MoveProject(ctx context.Context, in MoveContainerInput) (*Outcome, error) {
	if err := checkContainerDestination(in); err != nil {
		return nil, err
	}
	return s.mutate(ctx, opMoveProject, &in)
}

func (s *Service) MoveFolder(ctx context.Context, in MoveContainerInput) (*Outcome, error) {
	if err := checkContainerDestination(in); err != nil {
		return nil, err
	}
	if in.ToFolderID != "" && in.ToFolderID == in.ID {
		return nil, core.InvalidArgument(errors.New("a folder cannot be moved into itself"), nil)
	}
	return s.mutate(ctx, opMoveFolder, &in)
}

func (s *Service) Delete(ctx context.Context, in DeleteInput) (*Outcome, error) {
	return s.mutate(ctx, opDeleteItem, &in)
}

func (s *Service) AppStatus(ctx context.Context) (*AppStatus, error) {
	res, err := s.run(ctx, opAppStatus, struct{}{})
	if err != nil {
		return nil, err
	}
	if !res.Get("success").Bool() {
		return nil, core.ScriptFailed(&automation.ScriptError{Message: scriptMessage(res)}, nil)
	}
	return &AppStatus{
		Version:  res.Get("version").String(),
		Tasks:    res.Get("tasks").Int(),
		Projects: res.Get("projects").Int(),
		Folders:  res.Get("folders").Int(),
		Tags:     res.Get("tags").Int(),
		Inbox:    res.Get("inbox").Int(),
	}, nil
}

func (s *Service) mutate(ctx context.Context, op string, in any) (*Outcome, error) {
	if err := s.validate.StructCtx(ctx, in); err != nil {
		return nil, core.InvalidArgument(err, map[string]any{"operation": op})
	}
	res, err := s.run(ctx, op, in)
	if err != nil {
		return nil, err
	}
	out := &Outcome{
		Success: res.Get("success").Bool(),
		ID:      res.Get("id").String(),
		Name:    res.Get("name").String(),
	}
	if !out.Success {
		out.Error = scriptMessage(res)
	}
	logger.FromContext(ctx).Debug("OmniFocus operation finished",
		"operation", op,
		"success", out.Success,
		"id", out.ID,
		"error", out.Error,
	)
	return out, nil
}

func (s *Service) run(ctx context.Context, op string, params any) (gjson.Result, error) {
	script, err := s.scripts.Build(op, params)
	if err != nil {
		return gjson.Result{}, core.Internal(err, map[string]any{"operation": op})
	}
	output, err := s.exec.Run(ctx, script)
	if err != nil {
		return gjson.Result{}, wrapRunError(op, err)
	}
	res, err := output.Result()
	if err != nil {
		return gjson.Result{}, core.ScriptFailed(err, map[string]any{"operation": op})
	}
	if !res.IsObject() {
		return gjson.Result{}, core.ScriptFailed(
			fmt.Errorf("unexpected script result: %s", res.Raw),
			map[string]any{"operation": op},
		)
	}
	return res, nil
}

func wrapRunError(op string, err error) error {
	details := map[string]any{"operation": op}
	var perr *automation.ProcessError
	if errors.As(err, &perr) {
		switch {
		case perr.Operation == automation.OpTimeout:
			return core.DeadlineExceeded(err, details)
		case perr.Transient:
			return core.Unavailable(err, details)
		}
	}
	return core.ScriptFailed(err, details)
}

func scriptMessage(res gjson.Result) string {
	msg := strings.TrimSpace(res.Get("error").String())
	if msg == "" {
		return "OmniFocus reported a failure without a message"
	}
	return msg
}

func countSet(flags ...bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}

func checkContainerDestination(in MoveContainerInput) error {
	n := countSet(in.ToFolderID != "" || in.ToFolderName != "", in.ToTopLevel)
	if n != 1 {
		return core.InvalidArgument(
			errors.New("exactly one destination is required: folder or top level"),
			map[string]any{"destinations": n},
		)
	}
	return nil
}
