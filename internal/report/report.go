// Package report derives the filtered tables and chart series shown on the
// reports page from a snapshot of the ward stores. Every function here is
// pure: it reads the snapshot and never mutates it.
package report

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/imdcare/ward/internal/domain/appointment"
	"github.com/imdcare/ward/internal/domain/consultation"
	"github.com/imdcare/ward/internal/domain/patient"
)

const dayLayout = "2006-01-02"

// AllSpecialties disables the specialty filter.
const AllSpecialties = "all"

// MaxRangeDays bounds the number of calendar days a filter may span.
const MaxRangeDays = 3660

var ErrInvalidFilter = errors.New("invalid report filter")

// Dataset is a read-only snapshot of the three ward collections.
type Dataset struct {
	Patients      []*patient.Patient
	Consultations []*consultation.Consultation
	Appointments  []*appointment.Appointment
}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func dayKey(t time.Time) string {
	return t.Format(dayLayout)
}

// ParseRange parses two YYYY-MM-DD dates. A range whose start is after its
// end is accepted and simply matches nothing; one longer than MaxRangeDays
// is rejected.
func ParseRange(start, end string) (DateRange, error) {
	s, err := time.Parse(dayLayout, start)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: start date %q", ErrInvalidFilter, start)
	}
	e, err := time.Parse(dayLayout, end)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: end date %q", ErrInvalidFilter, end)
	}
	// Sub saturates, so distant years still exceed the limit
	if e.After(s) && e.Sub(s) >= MaxRangeDays*24*time.Hour {
		return DateRange{}, fmt.Errorf("%w: range exceeds %d days", ErrInvalidFilter, MaxRangeDays)
	}
	return DateRange{Start: s, End: e}, nil
}

// Today is the single-day range used when no dates are given.
func Today(now time.Time) DateRange {
	d, _ := time.Parse(dayLayout, dayKey(now))
	return DateRange{Start: d, End: d}
}

func (r DateRange) Empty() bool {
	return dayKey(r.Start) > dayKey(r.End)
}

// Contains compares the calendar day of t, as stored, with the range bounds.
func (r DateRange) Contains(t time.Time) bool {
	k := dayKey(t)
	return k >= dayKey(r.Start) && k <= dayKey(r.End)
}

// Days lists every calendar day in the range, oldest first.
func (r DateRange) Days() []string {
	if r.Empty() {
		return nil
	}
	var days []string
	end := dayKey(r.End)
	for d := r.Start; dayKey(d) <= end; d = d.AddDate(0, 0, 1) {
		days = append(days, dayKey(d))
	}
	return days
}

func (r DateRange) String() string {
	return dayKey(r.Start) + ".." + dayKey(r.End)
}

// Tab selects which sections a view or export shows.
type Tab string

const (
	TabAll           Tab = "all"
	TabAdmissions    Tab = "admissions"
	TabConsultations Tab = "consultations"
	TabAppointments  Tab = "appointments"
)

func ParseTab(s string) (Tab, error) {
	switch t := Tab(strings.ToLower(s)); t {
	case "":
		return TabAll, nil
	case TabAll, TabAdmissions, TabConsultations, TabAppointments:
		return t, nil
	default:
		return "", fmt.Errorf("%w: tab %q", ErrInvalidFilter, s)
	}
}

func (t Tab) Includes(section Tab) bool {
	return t == TabAll || t == section
}

type Filter struct {
	Range     DateRange
	Specialty string
	Tab       Tab
}

func (f Filter) matchesSpecialty(s string) bool {
	return f.Specialty == "" || f.Specialty == AllSpecialties || f.Specialty == s
}

// ParseFilter builds a filter from request values. Missing dates default to
// today; missing specialty and tab default to all.
func ParseFilter(start, end, specialty, tab string, now time.Time) (Filter, error) {
	r := Today(now)
	if start != "" || end != "" {
		if start == "" {
			start = end
		}
		if end == "" {
			end = start
		}
		var err error
		if r, err = ParseRange(start, end); err != nil {
			return Filter{}, err
		}
	}
	t, err := ParseTab(tab)
	if err != nil {
		return Filter{}, err
	}
	if specialty == "" {
		specialty = AllSpecialties
	}
	return Filter{Range: r, Specialty: specialty, Tab: t}, nil
}
