// Package sandbox generates reproducible demo data for a ward: doctors,
// admitted patients with readmissions, consultations and clinic
// appointments.
package sandbox

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/imdcare/ward/internal/domain/appointment"
	"github.com/imdcare/ward/internal/domain/consultation"
	"github.com/imdcare/ward/internal/domain/patient"
	"github.com/imdcare/ward/internal/report"
)

// SeedConfig controls the volume and shape of generated data.
type SeedConfig struct {
	PatientCount       int   `json:"patientCount"`
	ReadmissionPercent int   `json:"readmissionPercent"`
	DischargePercent   int   `json:"dischargePercent"`
	SafetyPercent      int   `json:"safetyPercent"`
	DoctorCount        int   `json:"doctorCount"`
	ConsultationCount  int   `json:"consultationCount"`
	AppointmentCount   int   `json:"appointmentCount"`
	Days               int   `json:"days"`
	Seed               int64 `json:"seed"`
}

func DefaultSeedConfig() SeedConfig {
	return SeedConfig{
		PatientCount:       40,
		ReadmissionPercent: 20,
		DischargePercent:   30,
		SafetyPercent:      15,
		DoctorCount:        8,
		ConsultationCount:  15,
		AppointmentCount:   10,
		Days:               30,
	}
}

var (
	firstNames = []string{
		"James", "Robert", "John", "Michael", "David", "William", "Richard",
		"Mary", "Patricia", "Jennifer", "Linda", "Barbara", "Elizabeth",
		"Susan", "Jessica", "Sarah", "Karen", "Omar", "Layla", "Yusuf",
		"Amira", "Hassan", "Nadia", "Karim", "Leila",
	}
	lastNames = []string{
		"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia",
		"Miller", "Davis", "Rodriguez", "Martinez", "Haddad", "Khalil",
		"Nasser", "Saleh", "Mansour", "Taylor", "Moore", "Jackson",
	}
	diagnoses = []string{
		"Community acquired pneumonia",
		"Acute exacerbation of COPD",
		"Diabetic ketoacidosis",
		"Upper GI bleeding",
		"Ischemic stroke",
		"Pulmonary embolism",
		"Cellulitis of lower limb",
		"Acute kidney injury",
		"Heart failure exacerbation",
		"Urinary tract infection",
		"Sickle cell crisis",
		"Rheumatoid arthritis flare",
	}
	reasons = []string{
		"Assessment of new neurological deficit",
		"Anticoagulation advice",
		"Review of abnormal blood count",
		"Glycaemic control",
		"Persistent fever of unknown origin",
		"Joint swelling",
	}
	shifts      = []string{"morning", "evening", "night"}
	urgencies   = []string{"routine", "urgent", "emergency"}
	safetyTypes = []string{"emergency", "observation", "short-stay"}
	apptTypes   = []string{"urgent", "regular"}
	genders     = []string{"male", "female"}
)

// Doctor is a users row with the doctor role.
type Doctor struct {
	ID         uuid.UUID
	Name       string
	Department string
}

// Stay is one planned admission. A nil Discharge leaves it active.
type Stay struct {
	Admit     patient.AdmitRequest
	Discharge *time.Time
}

// Plan is the full set of generated records, in insertion order.
type Plan struct {
	Doctors       []Doctor
	Stays         []Stay
	Consultations []*consultation.Consultation
	Appointments  []*appointment.Appointment
}

// Generator produces a deterministic Plan for a seed.
type Generator struct {
	rng *rand.Rand
	now time.Time
}

// NewGenerator returns a generator seeded for reproducibility. If seed is 0 a
// time-based seed is chosen.
func NewGenerator(seed int64, now time.Time) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{rng: rand.New(rand.NewSource(seed)), now: now}
}

func (g *Generator) pick(pool []string) string {
	return pool[g.rng.Intn(len(pool))]
}

func (g *Generator) percent(p int) bool {
	return g.rng.Intn(100) < p
}

func (g *Generator) mrn() string {
	return fmt.Sprintf("MRN-%06d", 100000+g.rng.Intn(900000))
}

func (g *Generator) name() string {
	return g.pick(firstNames) + " " + g.pick(lastNames)
}

// daysAgo returns a time on the given day back from now, during working
// hours.
func (g *Generator) daysAgo(days int) time.Time {
	d := g.now.AddDate(0, 0, -days)
	return time.Date(d.Year(), d.Month(), d.Day(), 7+g.rng.Intn(12), g.rng.Intn(60), 0, 0, d.Location())
}

func (g *Generator) Plan(cfg SeedConfig) Plan {
	var plan Plan
	days := cfg.Days
	if days < 2 {
		days = 2
	}

	for i := 0; i < cfg.DoctorCount; i++ {
		plan.Doctors = append(plan.Doctors, Doctor{
			ID:         uuid.New(),
			Name:       "Dr. " + g.name(),
			Department: report.Specialties[i%len(report.Specialties)],
		})
	}

	used := make(map[string]bool)
	for i := 0; i < cfg.PatientCount; i++ {
		mrn := g.mrn()
		for used[mrn] {
			mrn = g.mrn()
		}
		used[mrn] = true
		name := g.name()
		dob := time.Date(1940+g.rng.Intn(60), time.Month(1+g.rng.Intn(12)), 1+g.rng.Intn(28), 0, 0, 0, 0, time.UTC)
		gender := g.pick(genders)

		visits := 1
		if g.percent(cfg.ReadmissionPercent) {
			visits = 2
		}
		start := 1 + g.rng.Intn(days-1)
		var prevOut *time.Time
		for v := 1; v <= visits; v++ {
			admitted := g.daysAgo(start)
			if prevOut != nil && !admitted.After(*prevOut) {
				admitted = prevOut.Add(2 * time.Hour)
			}
			if admitted.After(g.now) {
				admitted = g.now
			}
			req := patient.AdmitRequest{
				MRN:           mrn,
				Name:          name,
				DateOfBirth:   &dob,
				Gender:        gender,
				Department:    report.Specialties[g.rng.Intn(len(report.Specialties)-1)],
				Diagnosis:     g.pick(diagnoses),
				ShiftType:     g.pick(shifts),
				AdmissionDate: &admitted,
			}
			if v == 1 && g.percent(cfg.SafetyPercent) {
				kind := g.pick(safetyTypes)
				req.SafetyType = &kind
				req.Department = "Safety Admission"
			}
			if len(plan.Doctors) > 0 && g.percent(80) {
				doc := plan.Doctors[g.rng.Intn(len(plan.Doctors))]
				req.DoctorID = &doc.ID
				req.DoctorName = &doc.Name
			}

			stay := Stay{Admit: req}
			last := v == visits
			if !last || g.percent(cfg.DischargePercent) {
				stayDays := 1 + g.rng.Intn(start)
				if stayDays > start {
					stayDays = start
				}
				out := admitted.AddDate(0, 0, stayDays/2+1)
				if out.After(g.now) {
					out = g.now
				}
				stay.Discharge = &out
				prevOut = &out
				start -= stayDays/2 + 1
				if start < 1 {
					start = 1
				}
			}
			plan.Stays = append(plan.Stays, stay)
			if stay.Discharge == nil {
				break
			}
		}
	}

	for i := 0; i < cfg.ConsultationCount; i++ {
		c := &consultation.Consultation{
			PatientName:           g.name(),
			MRN:                   g.mrn(),
			RequestingDepartment:  g.pick(report.Specialties[:10]),
			ConsultationSpecialty: g.pick(report.Specialties[:10]),
			Urgency:               g.pick(urgencies),
			Reason:                g.pick(reasons),
			ShiftType:             g.pick(shifts),
		}
		if len(plan.Stays) > 0 && g.percent(60) {
			s := plan.Stays[g.rng.Intn(len(plan.Stays))]
			c.PatientName = s.Admit.Name
			c.MRN = s.Admit.MRN
		}
		plan.Consultations = append(plan.Consultations, c)
	}

	for i := 0; i < cfg.AppointmentCount; i++ {
		plan.Appointments = append(plan.Appointments, &appointment.Appointment{
			PatientName:     g.name(),
			MedicalNumber:   fmt.Sprintf("MN-%05d", g.rng.Intn(100000)),
			Specialty:       g.pick(report.Specialties[:10]),
			AppointmentType: g.pick(apptTypes),
			Status:          appointment.StatusPending,
		})
	}
	return plan
}

// DoctorWriter persists doctors before admissions reference them.
type DoctorWriter interface {
	CreateDoctor(ctx context.Context, d Doctor) error
}

// Target receives generated records through the normal service paths so
// validation and events apply to seeded data too.
type Target struct {
	Doctors       DoctorWriter
	Patients      patient.Manager
	Consultations consultation.Manager
	Appointments  appointment.Manager
}

// SeedResult summarizes the output of a seed operation.
type SeedResult struct {
	Doctors       int           `json:"doctors"`
	Patients      int           `json:"patients"`
	Admissions    int           `json:"admissions"`
	Readmissions  int           `json:"readmissions"`
	Discharges    int           `json:"discharges"`
	Consultations int           `json:"consultations"`
	Appointments  int           `json:"appointments"`
	Skipped       int           `json:"skipped"`
	Duration      time.Duration `json:"duration"`
}

type Seeder struct {
	config SeedConfig
	target Target
	logger zerolog.Logger
	now    func() time.Time
}

func NewSeeder(config SeedConfig, target Target, logger zerolog.Logger) *Seeder {
	return &Seeder{config: config, target: target, logger: logger, now: time.Now}
}

// Run generates a plan and writes it. Records rejected by a service, such as
// an MRN collision with existing data, are logged and skipped.
func (s *Seeder) Run(ctx context.Context) (*SeedResult, error) {
	start := time.Now()
	plan := NewGenerator(s.config.Seed, s.now()).Plan(s.config)
	res := &SeedResult{}

	for _, d := range plan.Doctors {
		if err := s.target.Doctors.CreateDoctor(ctx, d); err != nil {
			return res, fmt.Errorf("create doctor %s: %w", d.Name, err)
		}
		res.Doctors++
	}

	seen := make(map[string]bool)
	for _, st := range plan.Stays {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		req := st.Admit
		p, err := s.target.Patients.Admit(ctx, &req)
		if err != nil {
			s.logger.Warn().Err(err).Str("mrn", req.MRN).Msg("skipping admission")
			res.Skipped++
			continue
		}
		res.Admissions++
		if !seen[req.MRN] {
			seen[req.MRN] = true
			res.Patients++
		} else {
			res.Readmissions++
		}
		if st.Discharge != nil {
			if _, err := s.target.Patients.Discharge(ctx, p.ID, patient.DischargeRequest{DischargeDate: st.Discharge}); err != nil {
				s.logger.Warn().Err(err).Str("mrn", req.MRN).Msg("skipping discharge")
				res.Skipped++
				continue
			}
			res.Discharges++
		}
	}

	for _, c := range plan.Consultations {
		if err := s.target.Consultations.CreateConsultation(ctx, c); err != nil {
			s.logger.Warn().Err(err).Str("mrn", c.MRN).Msg("skipping consultation")
			res.Skipped++
			continue
		}
		res.Consultations++
	}

	for _, a := range plan.Appointments {
		if err := s.target.Appointments.BookAppointment(ctx, a); err != nil {
			s.logger.Warn().Err(err).Str("medical_number", a.MedicalNumber).Msg("skipping appointment")
			res.Skipped++
			continue
		}
		res.Appointments++
	}

	res.Duration = time.Since(start)
	s.logger.Info().
		Int("patients", res.Patients).
		Int("admissions", res.Admissions).
		Int("consultations", res.Consultations).
		Int("appointments", res.Appointments).
		Int("skipped", res.Skipped).
		Dur("duration", res.Duration).
		Msg("seed complete")
	return res, nil
}
