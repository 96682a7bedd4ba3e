package records

import "time"

// PatientView is the role-dependent projection of a patient row. Name and
// Contact are populated, decrypted, for the admin projection only; for every
// other role the pointers stay nil and the columns are omitted entirely.
type PatientView struct {
	PatientID         int64     `json:"patient_id"`
	Name              *string   `json:"name,omitempty"`
	Contact           *string   `json:"contact,omitempty"`
	AnonymizedName    *string   `json:"anonymized_name"`
	AnonymizedContact *string   `json:"anonymized_contact"`
	Diagnosis         string    `json:"diagnosis"`
	DateAdded         time.Time `json:"date_added"`
}
