package dto

import (
	"time"

	"github.com/customeros/mailsort/internal/models"
)

// RunCompletedEvent is the payload published when a run finishes.
type RunCompletedEvent struct {
	EventID        string               `json:"eventId"`
	EventType      string               `json:"eventType"`
	AccountAddress string               `json:"accountAddress"`
	Report         models.SessionReport `json:"report"`
	TotalActions   int                  `json:"totalActions"`
	CreatedAt      time.Time            `json:"createdAt"`
}
