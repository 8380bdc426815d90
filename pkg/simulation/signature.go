package simulation

// CheckSignature fails with SignatureValidation if the EntryPoint reported the UserOperation's signature
// (or the paymaster's) as invalid.
func CheckSignature(result *SimulateValidationResult) error {
	if result.ReturnInfo().SigFailed {
		return errSignatureValidation()
	}
	return nil
}
