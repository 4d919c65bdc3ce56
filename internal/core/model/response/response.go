package response

import "todolist/internal/core/domain"

type TodoResponse struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

func NewTodoResponses(entries []domain.TodoEntry) []TodoResponse {
	data := make([]TodoResponse, 0, len(entries))

	for _, entry := range entries {
		data = append(data, TodoResponse{ID: entry.ID, Text: entry.Text})
	}

	return data
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ResponseError struct {
	Code    string            `json:"code"`
	Errors  []ValidationError `json:"errors"`
	Details any               `json:"details,omitempty"`
}

type SuccessResponse struct {
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error ResponseError `json:"error"`
}
