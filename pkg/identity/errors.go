package identity

import (
	"fmt"

	"github.com/hashgraph-online/token-ledger-go/pkg/ledger"
)

// IdentityError is embedded by every authentication error.
type IdentityError struct {
	Message string
}

func (errorValue IdentityError) Error() string {
	return errorValue.Message
}

// UnknownCallerError reports a caller with no registered public key.
type UnknownCallerError struct {
	IdentityError
	Caller ledger.Address
}

// NewUnknownCallerError returns an UnknownCallerError for caller.
func NewUnknownCallerError(caller ledger.Address) error {
	return UnknownCallerError{
		IdentityError: IdentityError{Message: fmt.Sprintf("no key registered for caller %s", caller)},
		Caller:        caller,
	}
}

// InvalidSignatureError reports a signature that is malformed or does not
// verify against the caller's key.
type InvalidSignatureError struct {
	IdentityError
	Caller ledger.Address
}

// NewInvalidSignatureError returns an InvalidSignatureError with reason.
func NewInvalidSignatureError(caller ledger.Address, reason string) error {
	return InvalidSignatureError{
		IdentityError: IdentityError{Message: fmt.Sprintf("invalid signature from %s: %s", caller, reason)},
		Caller:        caller,
	}
}

// ReplayError reports a nonce that does not exceed the last accepted one.
type ReplayError struct {
	IdentityError
	Caller    ledger.Address
	Nonce     uint64
	LastNonce uint64
}

// NewReplayError returns a ReplayError for caller.
func NewReplayError(caller ledger.Address, nonce uint64, lastNonce uint64) error {
	return ReplayError{
		IdentityError: IdentityError{
			Message: fmt.Sprintf("nonce %d from %s is not greater than %d", nonce, caller, lastNonce),
		},
		Caller:    caller,
		Nonce:     nonce,
		LastNonce: lastNonce,
	}
}
