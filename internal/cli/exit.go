package cli

import "autolytiq-desk/internal/apperrors"

// Exit codes
const (
	ExitOK       = 0
	ExitError    = 1 // infrastructure or usage failure
	ExitRejected = 2 // the engine rejected the request (validation, tenant, conflict, not found)
)

// ExitCode maps a command error to the process exit status
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if apperrors.IsBusiness(err) {
		return ExitRejected
	}
	return ExitError
}
