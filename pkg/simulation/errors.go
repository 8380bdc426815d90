package simulation

import "fmt"

// JSON-RPC error codes used to surface a SimulationError across the transport boundary, matching the
// eth-infinitism bundler convention for account-abstraction specific codes.
const (
	SignatureFailedErrorCode    = -32507
	SimulateValidationErrorCode = -32500
	OpcodeValidationErrorCode   = -32502
	ExecutionErrorCode          = -32521
	InternalErrorCode           = -32603
)

// SimulationError is the closed error taxonomy every simulation pipeline component returns. Which of the
// other fields are meaningful depends on Kind: Entity and Opcode for OpcodeValidation, Slot for
// StorageAccessValidation, Message (and for UnknownError, Cause) for the rest.
type SimulationError struct {
	Kind    SimulationErrorKind
	Entity  string
	Opcode  string
	Slot    string
	Message string
	Cause   error
}

// SimulationErrorKind enumerates the taxonomy; it is closed and exhaustive.
type SimulationErrorKind int

const (
	SignatureValidation SimulationErrorKind = iota
	UserOperationRejected
	OpcodeValidation
	StorageAccessValidation
	CallStackValidation
	CodeHashesValidation
	UserOperationExecution
	UnknownError
)

func (e *SimulationError) Error() string {
	switch e.Kind {
	case SignatureValidation:
		return "Invalid UserOp signature or paymaster signature"
	case UserOperationRejected:
		return e.Message
	case OpcodeValidation:
		return fmt.Sprintf("%s uses banned opcode: %s", e.Entity, e.Opcode)
	case StorageAccessValidation:
		return fmt.Sprintf("Storage access validation failed for slot: %s", e.Slot)
	case CallStackValidation:
		return e.Message
	case CodeHashesValidation:
		return e.Message
	case UserOperationExecution:
		return e.Message
	case UnknownError:
		return e.Message
	default:
		return "unknown simulation error"
	}
}

func (e *SimulationError) Unwrap() error { return e.Cause }

// RPCCode maps this error's Kind to its JSON-RPC numeric code, per the external interface contract.
func (e *SimulationError) RPCCode() int {
	switch e.Kind {
	case SignatureValidation:
		return SignatureFailedErrorCode
	case UserOperationRejected:
		return SimulateValidationErrorCode
	case OpcodeValidation, StorageAccessValidation, CallStackValidation, CodeHashesValidation:
		return OpcodeValidationErrorCode
	case UserOperationExecution:
		return ExecutionErrorCode
	default:
		return InternalErrorCode
	}
}

func errSignatureValidation() *SimulationError {
	return &SimulationError{Kind: SignatureValidation}
}

func errUserOperationRejected(msg string) *SimulationError {
	return &SimulationError{Kind: UserOperationRejected, Message: msg}
}

func errOpcodeValidation(entity, opcode string) *SimulationError {
	return &SimulationError{Kind: OpcodeValidation, Entity: entity, Opcode: opcode}
}

func errStorageAccessValidation(slot string) *SimulationError {
	return &SimulationError{Kind: StorageAccessValidation, Slot: slot}
}

func errCallStackValidation(msg string) *SimulationError {
	return &SimulationError{Kind: CallStackValidation, Message: msg}
}

func errCodeHashesValidation(msg string) *SimulationError {
	return &SimulationError{Kind: CodeHashesValidation, Message: msg}
}

func errUnknown(msg string, cause error) *SimulationError {
	return &SimulationError{Kind: UnknownError, Message: msg, Cause: cause}
}
