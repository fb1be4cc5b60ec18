package planning

import "time"

// Site is the active construction project (obra) context.
type Site struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	StartDate *time.Time `json:"data_inicio,omitempty"`
	EndDate   *time.Time `json:"data_termino,omitempty"`
	// Completed is the externally managed project-status flag.
	Completed bool `json:"completed"`
}
