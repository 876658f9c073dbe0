package dto

// RegradeResponse reports how a quiz re-grade request was dispatched.
type RegradeResponse struct {
	QuizID   string `json:"quiz_id"`
	Attempts int    `json:"attempts"`
	Queued   bool   `json:"queued"`
}
