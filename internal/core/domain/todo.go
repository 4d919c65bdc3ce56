package domain

// TodoEntry is a single item of the todo list. ID is assigned by the store on insert.
type TodoEntry struct {
	ID   int64  `db:"id" json:"id"`
	Text string `db:"text" json:"text"`
}
