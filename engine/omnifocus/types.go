package omnifocus

// TaskInput creates one task. Without a project or parent task it lands in the inbox.
type TaskInput struct {
	Name             string   `json:"name"                       validate:"required"`
	Note             string   `json:"note,omitempty"`
	DueDate          string   `json:"dueDate,omitempty"`
	DeferDate        string   `json:"deferDate,omitempty"`
	Flagged          bool     `json:"flagged,omitempty"`
	EstimatedMinutes int      `json:"estimatedMinutes,omitempty" validate:"min=0"`
	Tags             []string `json:"tags,omitempty"             validate:"dive,required"`
	ProjectID        string   `json:"projectId,omitempty"`
	ProjectName      string   `json:"projectName,omitempty"`
	ParentTaskID     string   `json:"parentTaskId,omitempty"`
}

// ProjectInput creates one project, optionally inside a folder.
type ProjectInput struct {
	Name             string   `json:"name"                       validate:"required"`
	Note             string   `json:"note,omitempty"`
	DueDate          string   `json:"dueDate,omitempty"`
	DeferDate        string   `json:"deferDate,omitempty"`
	Flagged          bool     `json:"flagged,omitempty"`
	EstimatedMinutes int      `json:"estimatedMinutes,omitempty" validate:"min=0"`
	Tags             []string `json:"tags,omitempty"             validate:"dive,required"`
	FolderID         string   `json:"folderId,omitempty"`
	FolderName       string   `json:"folderName,omitempty"`
	Sequential       bool     `json:"sequential,omitempty"`
}

type FolderInput struct {
	Name             string `json:"name"                       validate:"required"`
	ParentFolderID   string `json:"parentFolderId,omitempty"`
	ParentFolderName string `json:"parentFolderName,omitempty"`
}

type TagInput struct {
	Name          string `json:"name"                    validate:"required"`
	ParentTagID   string `json:"parentTagId,omitempty"`
	ParentTagName string `json:"parentTagName,omitempty"`
}

// Ref addresses an existing object by id, or by name when no id is given.
type Ref struct {
	ID   string `json:"id,omitempty"   validate:"required_without=Name"`
	Name string `json:"name,omitempty" validate:"required_without=ID"`
}

// Edit inputs use pointers so that absent fields are left untouched.
// An empty date string clears the date.
type EditTaskInput struct {
	Ref
	NewName          *string  `json:"newName,omitempty"          validate:"omitempty,min=1"`
	Note             *string  `json:"note,omitempty"`
	DueDate          *string  `json:"dueDate,omitempty"`
	DeferDate        *string  `json:"deferDate,omitempty"`
	Flagged          *bool    `json:"flagged,omitempty"`
	EstimatedMinutes *int     `json:"estimatedMinutes,omitempty" validate:"omitempty,min=0"`
	Status           *string  `json:"status,omitempty"           validate:"omitempty,oneof=incomplete completed dropped" jsonschema:"enum=incomplete,enum=completed,enum=dropped"`
	AddTags          []string `json:"addTags,omitempty"          validate:"dive,required"`
	RemoveTags       []string `json:"removeTags,omitempty"       validate:"dive,required"`
	ReplaceTags      []string `json:"replaceTags,omitempty"      validate:"dive,required"`
}

type EditProjectInput struct {
	Ref
	NewName    *string  `json:"newName,omitempty"    validate:"omitempty,min=1"`
	Note       *string  `json:"note,omitempty"`
	DueDate    *string  `json:"dueDate,omitempty"`
	DeferDate  *string  `json:"deferDate,omitempty"`
	Flagged    *bool    `json:"flagged,omitempty"`
	Sequential *bool    `json:"sequential,omitempty"`
	Status     *string  `json:"status,omitempty"     validate:"omitempty,oneof=active onHold done dropped" jsonschema:"enum=active,enum=onHold,enum=done,enum=dropped"`
	AddTags    []string `json:"addTags,omitempty"    validate:"dive,required"`
	RemoveTags []string `json:"removeTags,omitempty" validate:"dive,required"`
}

type EditFolderInput struct {
	Ref
	NewName *string `json:"newName,omitempty" validate:"omitempty,min=1"`
	Status  *string `json:"status,omitempty"  validate:"omitempty,oneof=active dropped" jsonschema:"enum=active,enum=dropped"`
}

type EditTagInput struct {
	Ref
	NewName *string `json:"newName,omitempty" validate:"omitempty,min=1"`
	Status  *string `json:"status,omitempty"  validate:"omitempty,oneof=active onHold dropped" jsonschema:"enum=active,enum=onHold,enum=dropped"`
}

// MoveTaskInput needs exactly one destination.
type MoveTaskInput struct {
	ID             string `json:"id"                       validate:"required"`
	ToProjectID    string `json:"toProjectId,omitempty"`
	ToProjectName  string `json:"toProjectName,omitempty"`
	ToParentTaskID string `json:"toParentTaskId,omitempty"`
	ToInbox        bool   `json:"toInbox,omitempty"`
}

// MoveContainerInput moves a project or folder into a folder or to the top level.
type MoveContainerInput struct {
	ID           string `json:"id"                     validate:"required"`
	ToFolderID   string `json:"toFolderId,omitempty"`
	ToFolderName string `json:"toFolderName,omitempty"`
	ToTopLevel   bool   `json:"toTopLevel,omitempty"`
}

type ItemKind string

const (
	KindTask    ItemKind = "task"
	KindProject ItemKind = "project"
	KindFolder  ItemKind = "folder"
	KindTag     ItemKind = "tag"
)

type DeleteInput struct {
	Ref
	Kind ItemKind `json:"kind" validate:"required,oneof=task project folder tag" jsonschema:"enum=task,enum=project,enum=folder,enum=tag"`
}

// Outcome is what every mutating script reports back.
type Outcome struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Name    string `json:"name,omitempty"`
	Error   string `json:"error,omitempty"`
}

type AppStatus struct {
	Version  string `json:"version"`
	Tasks    int64  `json:"tasks"`
	Projects int64  `json:"projects"`
	Folders  int64  `json:"folders"`
	Tags     int64  `json:"tags"`
	Inbox    int64  `json:"inbox"`
}
