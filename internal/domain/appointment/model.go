package appointment

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("appointment not found")
	ErrInvalid  = errors.New("invalid appointment")
)

// DefaultTTL is how long an appointment stays visible after it is booked.
const DefaultTTL = 24 * time.Hour

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

var validStatuses = map[string]bool{
	StatusPending:   true,
	StatusCompleted: true,
	StatusCancelled: true,
}

var validTypes = map[string]bool{
	"urgent":  true,
	"regular": true,
}

type Appointment struct {
	ID              uuid.UUID `json:"id"`
	PatientName     string    `json:"patient_name"`
	MedicalNumber   string    `json:"medical_number"`
	Specialty       string    `json:"specialty"`
	AppointmentType string    `json:"appointment_type"`
	Notes           string    `json:"notes"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

// ExpiresAt is when the appointment drops out of active views.
func (a *Appointment) ExpiresAt(ttl time.Duration) time.Time {
	return a.CreatedAt.Add(ttl)
}

// Expired is true once the appointment is older than ttl.
func (a *Appointment) Expired(now time.Time, ttl time.Duration) bool {
	return !now.Before(a.ExpiresAt(ttl))
}
