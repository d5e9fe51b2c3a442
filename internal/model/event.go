package model

// ContentEvent describes a committed change to quiz content.
type ContentEvent struct {
	Action   ContentAction `json:"event"`
	Entity   ContentEntity `json:"entity"`
	ID       int           `json:"id"`
	ParentID int           `json:"parent_id,omitempty"`
}

type ContentAction string

const (
	ContentCreated ContentAction = "created"
	ContentUpdated ContentAction = "updated"
	ContentDeleted ContentAction = "deleted"
)

type ContentEntity string

const (
	EntityQuiz     ContentEntity = "quiz"
	EntityQuestion ContentEntity = "question"
	EntityOption   ContentEntity = "option"
)
