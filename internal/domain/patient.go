package domain

import "time"

// Patient is the stored form of a patient row. Name and Contact hold
// ciphertext only; the core never persists them in plaintext. The pseudonym
// pair is nil until the first anonymization run and is overwritten wholesale
// on each subsequent run.
type Patient struct {
	ID                int64
	Name              []byte // ciphertext
	Contact           []byte // ciphertext
	AnonymizedName    *string
	AnonymizedContact *string
	Diagnosis         string
	DateAdded         time.Time
}
