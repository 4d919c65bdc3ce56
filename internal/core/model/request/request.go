package request

import "strconv"

// AddTodoRequest is the form posted to /add. A present but empty text is accepted;
// only a missing field is rejected.
type AddTodoRequest struct {
	Text *string `form:"text" json:"text" validate:"required"`
}

// DeleteTodoRequest is the form posted to /delete.
type DeleteTodoRequest struct {
	ID *string `form:"id" json:"id" validate:"required,integer"`
}

// EntryID returns the parsed id. Call only after validation succeeded.
func (r DeleteTodoRequest) EntryID() (int64, error) {
	return strconv.ParseInt(*r.ID, 10, 64)
}
