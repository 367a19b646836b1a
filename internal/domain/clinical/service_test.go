package clinical

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bhcms/bhcms/internal/platform/auth"
	"github.com/bhcms/bhcms/internal/platform/privacy"
)

type fakeRecordRepo struct {
	byID map[uuid.UUID]*MedicalRecord
}

func newFakeRecordRepo() *fakeRecordRepo {
	return &fakeRecordRepo{byID: make(map[uuid.UUID]*MedicalRecord)}
}

func (r *fakeRecordRepo) Create(ctx context.Context, m *MedicalRecord) error {
	m.ID = uuid.New()
	r.byID[m.ID] = m
	return nil
}

func (r *fakeRecordRepo) GetByID(ctx context.Context, id uuid.UUID) (*MedicalRecord, error) {
	m, ok := r.byID[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return m, nil
}

func (r *fakeRecordRepo) Update(ctx context.Context, m *MedicalRecord) error {
	if _, ok := r.byID[m.ID]; !ok {
		return ErrRecordNotFound
	}
	r.byID[m.ID] = m
	return nil
}

func (r *fakeRecordRepo) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*MedicalRecord, int, error) {
	var list []*MedicalRecord
	for _, m := range r.byID {
		if m.PatientID == patientID {
			list = append(list, m)
		}
	}
	return list, len(list), nil
}

type fakePrescriptionRepo struct {
	byID map[uuid.UUID]*Prescription
}

func newFakePrescriptionRepo() *fakePrescriptionRepo {
	return &fakePrescriptionRepo{byID: make(map[uuid.UUID]*Prescription)}
}

func (r *fakePrescriptionRepo) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	r.byID[p.ID] = p
	return nil
}

func (r *fakePrescriptionRepo) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, ErrPrescriptionNotFound
	}
	return p, nil
}

func (r *fakePrescriptionRepo) ListByRecord(ctx context.Context, recordID uuid.UUID) ([]*Prescription, error) {
	var list []*Prescription
	for _, p := range r.byID {
		if p.RecordID == recordID {
			list = append(list, p)
		}
	}
	return list, nil
}

func (r *fakePrescriptionRepo) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	var list []*Prescription
	for _, p := range r.byID {
		if p.PatientID == patientID {
			list = append(list, p)
		}
	}
	return list, len(list), nil
}

type fakeVitalsRepo struct {
	byPatient map[uuid.UUID][]*VitalSigns
}

func newFakeVitalsRepo() *fakeVitalsRepo {
	return &fakeVitalsRepo{byPatient: make(map[uuid.UUID][]*VitalSigns)}
}

func (r *fakeVitalsRepo) Create(ctx context.Context, v *VitalSigns) error {
	v.ID = uuid.New()
	r.byPatient[v.PatientID] = append(r.byPatient[v.PatientID], v)
	return nil
}

func (r *fakeVitalsRepo) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*VitalSigns, int, error) {
	list := r.byPatient[patientID]
	return list, len(list), nil
}

func (r *fakeVitalsRepo) Latest(ctx context.Context, patientID uuid.UUID) (*VitalSigns, error) {
	list := r.byPatient[patientID]
	if len(list) == 0 {
		return nil, ErrVitalsNotFound
	}
	return list[len(list)-1], nil
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(newFakeRecordRepo(), newFakePrescriptionRepo(), newFakeVitalsRepo())
}

func TestCreateRecord(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	t.Run("valid record defaults visit date", func(t *testing.T) {
		m := &MedicalRecord{
			PatientID:      uuid.New(),
			ChiefComplaint: "persistent cough for two weeks",
			Diagnosis:      "acute bronchitis",
		}
		if err := svc.CreateRecord(ctx, m); err != nil {
			t.Fatalf("create record: %v", err)
		}
		if m.VisitDate.IsZero() {
			t.Fatal("visit date not defaulted")
		}
	})

	t.Run("explicit visit date kept", func(t *testing.T) {
		visit := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
		m := &MedicalRecord{
			PatientID:      uuid.New(),
			ChiefComplaint: "follow-up",
			VisitDate:      visit,
		}
		if err := svc.CreateRecord(ctx, m); err != nil {
			t.Fatalf("create record: %v", err)
		}
		if !m.VisitDate.Equal(visit) {
			t.Fatalf("visit date = %v, want %v", m.VisitDate, visit)
		}
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		if err := svc.CreateRecord(ctx, &MedicalRecord{ChiefComplaint: "fever"}); err == nil {
			t.Error("expected error for missing patient")
		}
		if err := svc.CreateRecord(ctx, &MedicalRecord{PatientID: uuid.New()}); err == nil {
			t.Error("expected error for missing chief complaint")
		}
	})
}

func TestCreatePrescription(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	t.Run("valid prescription", func(t *testing.T) {
		p := &Prescription{
			PatientID:  uuid.New(),
			Medication: "Amoxicillin",
			Dosage:     "500mg three times daily",
		}
		if err := svc.CreatePrescription(ctx, p); err != nil {
			t.Fatalf("create prescription: %v", err)
		}
		if p.ID == uuid.Nil {
			t.Fatal("id not assigned")
		}
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		cases := []struct {
			name string
			p    *Prescription
		}{
			{"missing patient", &Prescription{Medication: "Amoxicillin", Dosage: "500mg"}},
			{"missing medication", &Prescription{PatientID: uuid.New(), Dosage: "500mg"}},
			{"missing dosage", &Prescription{PatientID: uuid.New(), Medication: "Amoxicillin"}},
		}
		for _, tc := range cases {
			if err := svc.CreatePrescription(ctx, tc.p); err == nil {
				t.Errorf("%s: expected error", tc.name)
			}
		}
	})
}

func TestVitals(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	patientID := uuid.New()

	if err := svc.RecordVitals(ctx, &VitalSigns{}); err == nil {
		t.Fatal("expected error for missing patient")
	}

	first := &VitalSigns{PatientID: patientID, SystolicBP: 120, DiastolicBP: 80}
	second := &VitalSigns{PatientID: patientID, SystolicBP: 135, DiastolicBP: 88}
	for _, v := range []*VitalSigns{first, second} {
		if err := svc.RecordVitals(ctx, v); err != nil {
			t.Fatalf("record vitals: %v", err)
		}
	}

	latest, err := svc.LatestVitals(ctx, patientID)
	if err != nil {
		t.Fatalf("latest vitals: %v", err)
	}
	if latest.SystolicBP != 135 {
		t.Fatalf("latest systolic = %d, want 135", latest.SystolicBP)
	}

	if _, err := svc.LatestVitals(ctx, uuid.New()); err != ErrVitalsNotFound {
		t.Fatalf("err = %v, want ErrVitalsNotFound", err)
	}
}

func TestBMI(t *testing.T) {
	cases := []struct {
		name   string
		vitals VitalSigns
		want   float64
	}{
		{"normal adult", VitalSigns{WeightKg: 70, HeightCm: 175}, 22.86},
		{"missing height", VitalSigns{WeightKg: 70}, 0},
		{"missing weight", VitalSigns{HeightCm: 175}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.vitals.BMI()
			if math.Abs(got-tc.want) > 0.01 {
				t.Fatalf("BMI() = %.2f, want %.2f", got, tc.want)
			}
		})
	}
}

func newEncryptionService(t *testing.T) *privacy.Service {
	t.Helper()
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("generate key: %v", err)
	}
	svc, err := privacy.NewService(hex.EncodeToString(key), allowAll{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new encryption service: %v", err)
	}
	return svc
}

type allowAll struct{}

func (allowAll) Allowed(ctx context.Context, p *auth.Principal, permission string) bool {
	return true
}

func TestRecordSensitiveFieldRoundTrip(t *testing.T) {
	ctx := context.Background()
	enc := newEncryptionService(t)

	m := &MedicalRecord{
		PatientID:      uuid.New(),
		ChiefComplaint: "chest pain on exertion",
		Diagnosis:      "stable angina",
		Treatment:      "aspirin 80mg daily, referral to cardiology",
		Notes:          "family history of CAD",
	}
	if err := m.EncryptSensitiveData(enc); err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	for _, field := range []string{m.ChiefComplaint, m.Diagnosis, m.Treatment, m.Notes} {
		if !enc.IsEncrypted(field) {
			t.Fatalf("field not encrypted: %q", field)
		}
	}

	doctor := &auth.Principal{Subject: uuid.NewString(), Roles: []string{auth.RoleDoctor}}
	m.DecryptSensitiveData(ctx, enc, doctor)
	if m.Diagnosis != "stable angina" {
		t.Fatalf("diagnosis = %q after decrypt", m.Diagnosis)
	}

	// A second decrypt pass must leave the plaintext untouched.
	m.DecryptSensitiveData(ctx, enc, doctor)
	if m.Diagnosis != "stable angina" || m.ChiefComplaint != "chest pain on exertion" {
		t.Fatalf("second decrypt changed fields: %q / %q", m.Diagnosis, m.ChiefComplaint)
	}
}
