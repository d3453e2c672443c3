package constant

// Structured error codes for license middleware responses
const (
	ErrCodeStartupValidationFailed = "LCS-0001"
	ErrCodeLicenseInvalid          = "LCS-0002"
	ErrCodeFeatureNotLicensed      = "LCS-0003"
	ErrCodeActivationFailed        = "LCS-0004"
	ErrCodeLicenseRevoked          = "LCS-0005"
)

// Error codes returned by the license backend on 4xx responses
const (
	BackendCodeInvalidKey       = "INVALID_LICENSE_KEY"
	BackendCodeExpired          = "LICENSE_EXPIRED"
	BackendCodeMachineMismatch  = "MACHINE_MISMATCH"
	BackendCodeAlreadyActivated = "ALREADY_ACTIVATED"
	BackendCodeRevoked          = "LICENSE_REVOKED"
	BackendCodeNotFound         = "LICENSE_NOT_FOUND"
)
