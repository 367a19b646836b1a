package privacy

import "strings"

// SensitiveFieldConfig maps an entity type to the fields whose values are
// stored encrypted and decrypted only for entitled viewers.
type SensitiveFieldConfig struct {
	// Entity is the domain entity name (e.g. "Patient").
	Entity string
	// Fields lists the JSON field names within the entity that carry
	// personally identifiable or medical information.
	Fields []string
}

// Registry holds the sensitive-field registrations for every entity type.
// Entities are registered explicitly at startup; there is no runtime struct
// scanning.
type Registry struct {
	configs []SensitiveFieldConfig
	names   map[string]bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]bool)}
}

// canonicalField folds a field name to its comparison form: lower case with
// underscores removed, so "FullName" and the JSON key "full_name" are the
// same registration.
func canonicalField(field string) string {
	return strings.ToLower(strings.ReplaceAll(field, "_", ""))
}

// Register records the sensitive fields for an entity type and returns the
// registry for chaining.
func (r *Registry) Register(entity string, fields ...string) *Registry {
	r.configs = append(r.configs, SensitiveFieldConfig{Entity: entity, Fields: fields})
	for _, f := range fields {
		r.names[canonicalField(f)] = true
	}
	return r
}

// IsSensitive reports whether the given field name is registered as sensitive
// for any entity. Matching ignores case and underscores, so both the Go field
// name and its JSON key match. This is the flat lookup used at the
// response-rewriting boundary, where no static type information exists.
func (r *Registry) IsSensitive(field string) bool {
	return r.names[canonicalField(field)]
}

// Configs returns the per-entity registrations.
func (r *Registry) Configs() []SensitiveFieldConfig {
	return r.configs
}

// DefaultRegistry returns the sensitive-field registrations for the health
// center's entities. Numeric vitals and scheduling metadata are deliberately
// not listed; they are protected by access control, not encryption.
func DefaultRegistry() *Registry {
	return NewRegistry().
		Register("User",
			"FullName",
			"ContactNumber",
		).
		Register("Patient",
			"FullName",
			"DateOfBirth",
			"Address",
			"ContactNumber",
			"PhilHealthID",
			"EmergencyContactName",
			"EmergencyContactNumber",
		).
		Register("Appointment",
			"Reason",
		).
		Register("MedicalRecord",
			"ChiefComplaint",
			"Diagnosis",
			"Treatment",
			"Notes",
		).
		Register("Prescription",
			"Medication",
			"Dosage",
			"Instructions",
		).
		Register("NCDRiskAssessment",
			"FamilyHistory",
			"RiskLevel",
		).
		Register("HEEADSSSAssessment",
			"Home",
			"Education",
			"EatingHabits",
			"Activities",
			"Drugs",
			"Sexuality",
			"SuicideRisk",
			"Safety",
		)
}
