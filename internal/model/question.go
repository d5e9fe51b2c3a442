package model

import "time"

// Question belongs to exactly one quiz and owns its options.
type Question struct {
	ID        int       `json:"id"`
	QuizID    int       `json:"quiz_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Options   []Option  `json:"options"`
}

// QuestionRequest is the payload for creating or editing a question.
type QuestionRequest struct {
	Text string `json:"text" binding:"required,notblank,max=2000"`
}
