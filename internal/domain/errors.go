package domain

import "errors"

// Sentinel errors for the core's failure taxonomy. Services wrap these
// (optionally with context) so callers can classify with errors.Is:
//
//   - ErrValidation: malformed caller input; surfaced to the caller with a reason.
//   - ErrPolicy: role outside the closed set; fails loudly, never defaulted.
//   - ErrStorage: transaction/connection failure; contained at the operation
//     boundary and converted to the documented bool/sentinel return contract.
//   - ErrCrypto: encryption/decryption failure; fatal to the enclosing
//     operation, which must abort rather than return corrupted data.
var (
	ErrValidation = errors.New("validation failed")
	ErrPolicy     = errors.New("policy violation")
	ErrStorage    = errors.New("storage failure")
	ErrCrypto     = errors.New("crypto failure")
)
