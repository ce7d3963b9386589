package types

import "errors"

// ARCHITECTURAL DISCOVERY: Specific error types enable proper error handling
// and user-friendly error messages throughout the system
var (
	ErrMissingFields     = errors.New("problem and difficulty are required")
	ErrInvalidProblem    = errors.New("problem must be 1-500 characters")
	ErrInvalidDifficulty = errors.New("difficulty must be one of easy, medium, hard")
	ErrInvalidUserID     = errors.New("user ID must be a non-empty identifier")
	ErrInvalidExternalID = errors.New("external ID must be a non-empty identifier")
)
