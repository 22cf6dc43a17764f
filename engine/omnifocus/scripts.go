package omnifocus

import (
	"embed"
	"fmt"
	"strings"

	"github.com/focusmcp/focusmcp/pkg/tplengine"
)

//go:embed scripts/*.tmpl scripts/prelude.js scripts/ops/*.js
var scriptFS embed.FS

const (
	opCreateTask    = "create_task"
	opCreateProject = "create_project"
	opCreateFolder  = "create_folder"
	opCreateTag     = "create_tag"
	opEditTask      = "edit_task"
	opEditProject   = "edit_project"
	opEditFolder    = "edit_folder"
	opEditTag       = "edit_tag"
	opMoveTask      = "move_task"
	opMoveProject   = "move_project"
	opMoveFolder    = "move_folder"
	opDeleteItem    = "delete_item"
	opAppStatus     = "app_status"
)

// ScriptBuilder turns an operation and its parameters into a JXA program that
// hands Omni Automation source to OmniFocus through evaluateJavascript.
type ScriptBuilder struct {
	engine  *tplengine.TemplateEngine
	prelude string
	ops     map[string]string
}

func NewScriptBuilder() (*ScriptBuilder, error) {
	engine := tplengine.NewEngine()
	if err := engine.AddFS(scriptFS, "scripts/*.tmpl"); err != nil {
		return nil, err
	}
	prelude, err := scriptFS.ReadFile("scripts/prelude.js")
	if err != nil {
		return nil, fmt.Errorf("failed to read prelude: %w", err)
	}
	entries, err := scriptFS.ReadDir("scripts/ops")
	if err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}
	ops := make(map[string]string, len(entries))
	for _, entry := range entries {
		body, err := scriptFS.ReadFile("scripts/ops/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read operation %s: %w", entry.Name(), err)
		}
		ops[strings.TrimSuffix(entry.Name(), ".js")] = string(body)
	}
	return &ScriptBuilder{engine: engine, prelude: string(prelude), ops: ops}, nil
}

// OmniSource renders the Omni Automation program for op.
func (b *ScriptBuilder) OmniSource(op string, params any) (string, error) {
	body, ok := b.ops[op]
	if !ok {
		return "", fmt.Errorf("unknown operation %q", op)
	}
	return b.engine.Render("omni", map[string]any{
		"Params":  params,
		"Prelude": b.prelude,
		"Body":    body,
	})
}

// Build renders the full JXA program for op.
func (b *ScriptBuilder) Build(op string, params any) (string, error) {
	source, err := b.OmniSource(op, params)
	if err != nil {
		return "", err
	}
	return b.engine.Render("launcher", map[string]any{"Source": source})
}
