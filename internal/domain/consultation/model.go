package consultation

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("consultation not found")
	ErrInvalid       = errors.New("invalid consultation")
	ErrAlreadyClosed = errors.New("consultation already closed")
)

const (
	StatusActive = "active"
	StatusClosed = "closed"
)

var validUrgencies = map[string]bool{
	"routine":   true,
	"urgent":    true,
	"emergency": true,
}

var validShifts = map[string]bool{
	"morning": true,
	"evening": true,
	"night":   true,
}

// Consultation is a request from one department for another specialty to
// see a patient. The MRN is a lookup key only; the patient may not exist.
type Consultation struct {
	ID                    uuid.UUID `json:"id"`
	PatientName           string    `json:"patient_name"`
	MRN                   string    `json:"mrn"`
	RequestingDepartment  string    `json:"requesting_department"`
	ConsultationSpecialty string    `json:"consultation_specialty"`
	Urgency               string    `json:"urgency"`
	Reason                string    `json:"reason"`
	ShiftType             string    `json:"shift_type"`
	Status                string    `json:"status"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// ListFilter narrows List. Empty fields match everything.
type ListFilter struct {
	Status    string
	Specialty string
	MRN       string
}
