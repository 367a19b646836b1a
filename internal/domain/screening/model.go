package screening

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bhcms/bhcms/internal/platform/auth"
	"github.com/bhcms/bhcms/internal/platform/privacy"
)

// Risk levels computed from an NCD assessment's answers.
const (
	RiskLow      = "Low"
	RiskModerate = "Moderate"
	RiskHigh     = "High"
)

// NCDRiskAssessment is a non-communicable disease screening questionnaire.
type NCDRiskAssessment struct {
	ID               uuid.UUID `json:"id" db:"id"`
	PatientID        uuid.UUID `json:"patient_id" db:"patient_id"`
	AssessedBy       uuid.UUID `json:"assessed_by" db:"assessed_by"`
	Age              int       `json:"age" db:"age"`
	Smoker           bool      `json:"smoker" db:"smoker"`
	AlcoholUse       bool      `json:"alcohol_use" db:"alcohol_use"`
	PhysicalInactive bool      `json:"physical_inactive" db:"physical_inactive"`
	HighSaltDiet     bool      `json:"high_salt_diet" db:"high_salt_diet"`
	Obese            bool      `json:"obese" db:"obese"`
	RaisedBP         bool      `json:"raised_bp" db:"raised_bp"`
	RaisedBloodSugar bool      `json:"raised_blood_sugar" db:"raised_blood_sugar"`
	FamilyHistory    string    `json:"family_history" db:"family_history"`
	RiskLevel        string    `json:"risk_level" db:"risk_level"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// Score totals the assessment's risk factors. Age over 40 and each clinical
// finding weigh more than lifestyle factors.
func (n *NCDRiskAssessment) Score() int {
	score := 0
	if n.Age >= 40 {
		score += 2
	}
	if n.Smoker {
		score += 2
	}
	if n.AlcoholUse {
		score++
	}
	if n.PhysicalInactive {
		score++
	}
	if n.HighSaltDiet {
		score++
	}
	if n.Obese {
		score += 2
	}
	if n.RaisedBP {
		score += 3
	}
	if n.RaisedBloodSugar {
		score += 3
	}
	if n.FamilyHistory != "" {
		score += 2
	}
	return score
}

// ComputeRiskLevel derives the risk band from the score and stores it on the
// assessment.
func (n *NCDRiskAssessment) ComputeRiskLevel() string {
	switch score := n.Score(); {
	case score >= 8:
		n.RiskLevel = RiskHigh
	case score >= 4:
		n.RiskLevel = RiskModerate
	default:
		n.RiskLevel = RiskLow
	}
	return n.RiskLevel
}

func (n *NCDRiskAssessment) sensitiveFields() []*string {
	return []*string{&n.FamilyHistory, &n.RiskLevel}
}

func (n *NCDRiskAssessment) EncryptSensitiveData(svc *privacy.Service) error {
	for _, f := range n.sensitiveFields() {
		enc, err := svc.EncryptField(*f)
		if err != nil {
			return err
		}
		*f = enc
	}
	return nil
}

func (n *NCDRiskAssessment) DecryptSensitiveData(ctx context.Context, svc *privacy.Service, p *auth.Principal) {
	for _, f := range n.sensitiveFields() {
		*f = svc.DecryptForUser(ctx, *f, p)
	}
}

// HEEADSSSAssessment is a psychosocial screening interview for adolescent
// patients. Every answer is treated as sensitive.
type HEEADSSSAssessment struct {
	ID           uuid.UUID `json:"id" db:"id"`
	PatientID    uuid.UUID `json:"patient_id" db:"patient_id"`
	AssessedBy   uuid.UUID `json:"assessed_by" db:"assessed_by"`
	Home         string    `json:"home" db:"home"`
	Education    string    `json:"education" db:"education"`
	EatingHabits string    `json:"eating_habits" db:"eating_habits"`
	Activities   string    `json:"activities" db:"activities"`
	Drugs        string    `json:"drugs" db:"drugs"`
	Sexuality    string    `json:"sexuality" db:"sexuality"`
	SuicideRisk  string    `json:"suicide_risk" db:"suicide_risk"`
	Safety       string    `json:"safety" db:"safety"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

func (h *HEEADSSSAssessment) sensitiveFields() []*string {
	return []*string{&h.Home, &h.Education, &h.EatingHabits, &h.Activities,
		&h.Drugs, &h.Sexuality, &h.SuicideRisk, &h.Safety}
}

func (h *HEEADSSSAssessment) EncryptSensitiveData(svc *privacy.Service) error {
	for _, f := range h.sensitiveFields() {
		enc, err := svc.EncryptField(*f)
		if err != nil {
			return err
		}
		*f = enc
	}
	return nil
}

func (h *HEEADSSSAssessment) DecryptSensitiveData(ctx context.Context, svc *privacy.Service, p *auth.Principal) {
	for _, f := range h.sensitiveFields() {
		*f = svc.DecryptForUser(ctx, *f, p)
	}
}
