package types

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Normalize trims user-supplied text before validation.
func (in *CreateSessionInput) Normalize() {
	in.Problem = strings.TrimSpace(in.Problem)
	in.Difficulty = strings.ToLower(strings.TrimSpace(in.Difficulty))
}

// Validate checks the input and maps validator failures onto the package errors
// so callers see a stable message per field.
func (in *CreateSessionInput) Validate() error {
	if in.Problem == "" || in.Difficulty == "" {
		return ErrMissingFields
	}
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	switch fieldErrs[0].Field() {
	case "Problem":
		return ErrInvalidProblem
	default:
		return ErrInvalidDifficulty
	}
}

// Validate ensures a freshly built session record is storable.
func (s *Session) Validate() error {
	if s.Problem == "" || utf8.RuneCountInString(s.Problem) > 500 {
		return ErrInvalidProblem
	}
	if !IsValidDifficulty(string(s.Difficulty)) {
		return ErrInvalidDifficulty
	}
	if !IsValidUserID(s.HostID) {
		return ErrInvalidUserID
	}
	if s.HasParticipant() && *s.ParticipantID == s.HostID {
		return ErrInvalidUserID
	}
	return nil
}

// Validate ensures the cached profile can be keyed.
func (a Actor) Validate() error {
	if !IsValidUserID(a.UserID) {
		return ErrInvalidUserID
	}
	if strings.TrimSpace(a.ExternalID) == "" {
		return ErrInvalidExternalID
	}
	return nil
}

// IsValidUserID checks if an internal user id is usable as a foreign key.
func IsValidUserID(userID string) bool {
	return strings.TrimSpace(userID) != "" && len(userID) <= 100
}

// IsValidDifficulty checks the allowed difficulty set.
func IsValidDifficulty(d string) bool {
	switch Difficulty(d) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}
