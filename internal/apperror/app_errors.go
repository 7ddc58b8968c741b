package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientGas  = errors.New("no gas coin with sufficient balance")
	ErrNoAvailableGame  = errors.New("no available game")
	ErrNoMarkFound      = errors.New("no mark found")
	ErrDecode           = errors.New("failed to decode object")
	ErrExecutionFailed  = errors.New("transaction execution failed")
	ErrMarkOwnership    = errors.New("mark is held by neither the player nor the shared account")
	ErrStatusRegression = errors.New("game status went backwards")
	ErrTurnRegression   = errors.New("game turn went backwards")

	ErrSerializationMismatch = errors.New("transaction bytes do not round-trip")
	ErrMultisigCombine       = errors.New("failed to combine multisig")
	ErrInvalidDescriptor     = errors.New("invalid multisig descriptor")
)

// ExecutionError carries the program's rejection message verbatim.
type ExecutionError struct {
	Digest  string
	Message string
}

func (that *ExecutionError) Error() string {
	return fmt.Sprintf("%s: %s (tx %s)", ErrExecutionFailed, that.Message, that.Digest)
}

func (that *ExecutionError) Unwrap() error {
	return ErrExecutionFailed
}
