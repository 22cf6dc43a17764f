package batch

import (
	"context"
	"fmt"

	"github.com/focusmcp/focusmcp/engine/omnifocus"
)

// Creator performs one fully resolved creation. Expected failures are
// reported through an unsuccessful Outcome; a returned error or a panic is
// treated as a failure of that item only.
type Creator interface {
	CreateTask(ctx context.Context, in omnifocus.TaskInput) (*omnifocus.Outcome, error)
	CreateProject(ctx context.Context, in omnifocus.ProjectInput) (*omnifocus.Outcome, error)
}

// Kind selects which creator handles an item.
type Kind string

const (
	KindTask    Kind = "task"
	KindProject Kind = "project"
)

// Payload is the kind-specific part of an item: TaskPayload or ProjectPayload.
type Payload interface {
	Kind() Kind
	Name() string
	payload()
}

// TaskPayload creates a task.
type TaskPayload struct {
	omnifocus.TaskInput
}

func (TaskPayload) Kind() Kind     { return KindTask }
func (p TaskPayload) Name() string { return p.TaskInput.Name }
func (TaskPayload) payload()       {}

// ProjectPayload creates a project.
type ProjectPayload struct {
	omnifocus.ProjectInput
}

func (ProjectPayload) Kind() Kind     { return KindProject }
func (p ProjectPayload) Name() string { return p.ProjectInput.Name }
func (ProjectPayload) payload()       {}

// Item is one requested creation.
type Item struct {
	TempID           string
	ParentTempID     string
	ExplicitParentID string
	OrderHint        int
	Payload          Payload
}

func (it Item) name() string {
	if it.Payload == nil {
		return ""
	}
	return it.Payload.Name()
}

// ItemResult reports one item, at the item's input position.
type ItemResult struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Result is the aggregated outcome. Success is true when at least one item was created.
type Result struct {
	Success bool         `json:"success"`
	Results []ItemResult `json:"results"`
	Error   string       `json:"error,omitempty"`
}

func failure(format string, args ...any) *ItemResult {
	return &ItemResult{Success: false, Error: fmt.Sprintf(format, args...)}
}

// ItemSpec is the flat wire shape of one batch item.
type ItemSpec struct {
	Kind             string   `json:"kind"                       yaml:"kind"                       mapstructure:"kind"             jsonschema:"enum=task,enum=project,description=Which kind of item to create"`
	Name             string   `json:"name"                       yaml:"name"                       mapstructure:"name"             jsonschema:"description=Display name of the task or project"`
	TempID           string   `json:"tempId,omitempty"           yaml:"tempId,omitempty"           mapstructure:"tempId"           jsonschema:"description=Batch-local label other items can reference before this item exists"`
	ParentTempID     string   `json:"parentTempId,omitempty"     yaml:"parentTempId,omitempty"     mapstructure:"parentTempId"     jsonschema:"description=tempId of the batch item this task nests under"`
	ParentID         string   `json:"parentId,omitempty"         yaml:"parentId,omitempty"         mapstructure:"parentId"         jsonschema:"description=Existing parent id: parent task for tasks or folder for projects. Wins over parentTempId"`
	OrderHint        int      `json:"orderHint,omitempty"        yaml:"orderHint,omitempty"        mapstructure:"orderHint"        jsonschema:"minimum=0,description=Lower values are created first when dependencies allow"`
	Note             string   `json:"note,omitempty"             yaml:"note,omitempty"             mapstructure:"note"`
	DueDate          string   `json:"dueDate,omitempty"          yaml:"dueDate,omitempty"          mapstructure:"dueDate"          jsonschema:"description=ISO 8601 date or date-time"`
	DeferDate        string   `json:"deferDate,omitempty"        yaml:"deferDate,omitempty"        mapstructure:"deferDate"        jsonschema:"description=ISO 8601 date or date-time"`
	Flagged          bool     `json:"flagged,omitempty"          yaml:"flagged,omitempty"          mapstructure:"flagged"`
	EstimatedMinutes int      `json:"estimatedMinutes,omitempty" yaml:"estimatedMinutes,omitempty" mapstructure:"estimatedMinutes" jsonschema:"minimum=0"`
	Tags             []string `json:"tags,omitempty"             yaml:"tags,omitempty"             mapstructure:"tags"`
	ProjectID        string   `json:"projectId,omitempty"        yaml:"projectId,omitempty"        mapstructure:"projectId"        jsonschema:"description=Tasks only: existing project id"`
	ProjectName      string   `json:"projectName,omitempty"      yaml:"projectName,omitempty"      mapstructure:"projectName"      jsonschema:"description=Tasks only: existing project name"`
	FolderName       string   `json:"folderName,omitempty"       yaml:"folderName,omitempty"       mapstructure:"folderName"       jsonschema:"description=Projects only: existing folder name"`
	Sequential       bool     `json:"sequential,omitempty"       yaml:"sequential,omitempty"       mapstructure:"sequential"       jsonschema:"description=Projects only: actions must be completed in order"`
}

// ToItem converts the wire shape into a typed Item.
func (s ItemSpec) ToItem() (Item, error) {
	item := Item{
		TempID:           s.TempID,
		ParentTempID:     s.ParentTempID,
		ExplicitParentID: s.ParentID,
		OrderHint:        s.OrderHint,
	}
	if s.OrderHint < 0 {
		return Item{}, fmt.Errorf("orderHint must be non-negative, got %d", s.OrderHint)
	}
	switch Kind(s.Kind) {
	case KindTask:
		item.Payload = TaskPayload{omnifocus.TaskInput{
			Name:             s.Name,
			Note:             s.Note,
			DueDate:          s.DueDate,
			DeferDate:        s.DeferDate,
			Flagged:          s.Flagged,
			EstimatedMinutes: s.EstimatedMinutes,
			Tags:             s.Tags,
			ProjectID:        s.ProjectID,
			ProjectName:      s.ProjectName,
		}}
	case KindProject:
		item.Payload = ProjectPayload{omnifocus.ProjectInput{
			Name:             s.Name,
			Note:             s.Note,
			DueDate:          s.DueDate,
			DeferDate:        s.DeferDate,
			Flagged:          s.Flagged,
			EstimatedMinutes: s.EstimatedMinutes,
			Tags:             s.Tags,
			FolderName:       s.FolderName,
			Sequential:       s.Sequential,
		}}
	default:
		return Item{}, fmt.Errorf("unknown kind %q: expected task or project", s.Kind)
	}
	return item, nil
}

// ToItems converts specs in order; the first invalid spec aborts with its index.
func ToItems(specs []ItemSpec) ([]Item, error) {
	items := make([]Item, len(specs))
	for i, spec := range specs {
		item, err := spec.ToItem()
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		items[i] = item
	}
	return items, nil
}
