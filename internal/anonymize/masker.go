// Package anonymize bulk-generates display-safe pseudonyms for patient rows.
// Pseudonyms are derived, not stored mappings: a name pseudonym mixes the
// patient id with a per-run multiplier, a contact pseudonym masks the
// decrypted contact. Nothing links a pseudonym back to the run that produced
// it, so values observed before a run are not valid after the next one.
package anonymize

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// Per-run multiplier range. One value is drawn per invocation and applied
// identically to every row in that run.
const (
	multiplierMin = 11
	multiplierMax = 19
)

func drawMultiplier() (int64, error) {
	span := big.NewInt(multiplierMax - multiplierMin + 1)
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return 0, fmt.Errorf("draw run multiplier: %w", err)
	}
	return multiplierMin + n.Int64(), nil
}

// MaskName derives the display pseudonym for a patient id under the run
// multiplier.
func MaskName(patientID, multiplier int64) string {
	return fmt.Sprintf("Patient-%d", patientID*multiplier)
}

// maskVisibleSuffix is how many trailing characters of a contact stay visible.
const maskVisibleSuffix = 4

// MaskContact replaces all but the last few characters of a contact value
// with asterisks. Short values are masked entirely.
func MaskContact(contact string) string {
	runes := []rune(contact)
	if len(runes) <= maskVisibleSuffix {
		return strings.Repeat("*", len(runes))
	}
	return strings.Repeat("*", len(runes)-maskVisibleSuffix) + string(runes[len(runes)-maskVisibleSuffix:])
}
