package model

// Option is an answer choice. At most one option per question is correct.
type Option struct {
	ID         int    `json:"id"`
	QuestionID int    `json:"question_id"`
	Text       string `json:"text"`
	IsCorrect  bool   `json:"is_correct"`
}

// OptionRequest is the payload for creating or editing an option.
type OptionRequest struct {
	Text      string `json:"text" binding:"required,notblank,max=500"`
	IsCorrect bool   `json:"is_correct"`
}
