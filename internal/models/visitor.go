package models

import "time"

type Visitor struct {
	ID           string    `json:"id"`
	TicketNumber int       `json:"ticket_number"`
	Name         string    `json:"name"`
	Age          *int      `json:"age,omitempty"`
	Purpose      string    `json:"purpose"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

const (
	StatusWaiting    = "waiting"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
)
