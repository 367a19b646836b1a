package clinical

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bhcms/bhcms/internal/platform/auth"
	"github.com/bhcms/bhcms/internal/platform/privacy"
)

type MedicalRecord struct {
	ID             uuid.UUID `json:"id" db:"id"`
	PatientID      uuid.UUID `json:"patient_id" db:"patient_id"`
	RecordedBy     uuid.UUID `json:"recorded_by" db:"recorded_by"`
	VisitDate      time.Time `json:"visit_date" db:"visit_date"`
	ChiefComplaint string    `json:"chief_complaint" db:"chief_complaint"`
	Diagnosis      string    `json:"diagnosis" db:"diagnosis"`
	Treatment      string    `json:"treatment" db:"treatment"`
	Notes          string    `json:"notes,omitempty" db:"notes"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

func (m *MedicalRecord) sensitiveFields() []*string {
	return []*string{&m.ChiefComplaint, &m.Diagnosis, &m.Treatment, &m.Notes}
}

func (m *MedicalRecord) EncryptSensitiveData(svc *privacy.Service) error {
	for _, f := range m.sensitiveFields() {
		enc, err := svc.EncryptField(*f)
		if err != nil {
			return err
		}
		*f = enc
	}
	return nil
}

func (m *MedicalRecord) DecryptSensitiveData(ctx context.Context, svc *privacy.Service, p *auth.Principal) {
	for _, f := range m.sensitiveFields() {
		*f = svc.DecryptForUser(ctx, *f, p)
	}
}

type Prescription struct {
	ID           uuid.UUID `json:"id" db:"id"`
	RecordID     uuid.UUID `json:"record_id" db:"record_id"`
	PatientID    uuid.UUID `json:"patient_id" db:"patient_id"`
	PrescribedBy uuid.UUID `json:"prescribed_by" db:"prescribed_by"`
	Medication   string    `json:"medication" db:"medication"`
	Dosage       string    `json:"dosage" db:"dosage"`
	Instructions string    `json:"instructions" db:"instructions"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

func (p *Prescription) sensitiveFields() []*string {
	return []*string{&p.Medication, &p.Dosage, &p.Instructions}
}

func (p *Prescription) EncryptSensitiveData(svc *privacy.Service) error {
	for _, f := range p.sensitiveFields() {
		enc, err := svc.EncryptField(*f)
		if err != nil {
			return err
		}
		*f = enc
	}
	return nil
}

func (p *Prescription) DecryptSensitiveData(ctx context.Context, svc *privacy.Service, principal *auth.Principal) {
	for _, f := range p.sensitiveFields() {
		*f = svc.DecryptForUser(ctx, *f, principal)
	}
}

// VitalSigns holds routine clinical measurements. These are stored as plain
// numeric values and are not field-encrypted.
type VitalSigns struct {
	ID               uuid.UUID `json:"id" db:"id"`
	PatientID        uuid.UUID `json:"patient_id" db:"patient_id"`
	RecordedBy       uuid.UUID `json:"recorded_by" db:"recorded_by"`
	SystolicBP       int       `json:"systolic_bp" db:"systolic_bp"`
	DiastolicBP      int       `json:"diastolic_bp" db:"diastolic_bp"`
	HeartRate        int       `json:"heart_rate" db:"heart_rate"`
	TemperatureC     float64   `json:"temperature_c" db:"temperature_c"`
	RespiratoryRate  int       `json:"respiratory_rate" db:"respiratory_rate"`
	WeightKg         float64   `json:"weight_kg" db:"weight_kg"`
	HeightCm         float64   `json:"height_cm" db:"height_cm"`
	OxygenSaturation int       `json:"oxygen_saturation" db:"oxygen_saturation"`
	RecordedAt       time.Time `json:"recorded_at" db:"recorded_at"`
}

// BMI computes the body mass index from the recorded weight and height.
// Returns 0 when either measurement is missing.
func (v *VitalSigns) BMI() float64 {
	if v.WeightKg <= 0 || v.HeightCm <= 0 {
		return 0
	}
	m := v.HeightCm / 100
	return v.WeightKg / (m * m)
}
