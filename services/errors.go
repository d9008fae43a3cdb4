package services

import "errors"

// Errors shared by the services and mapped to HTTP statuses by the handlers.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rules
	ErrValidationFailed    = errors.New("validation failed")
	ErrPasswordTooShort    = errors.New("password is too short")
	ErrInvalidEmail        = errors.New("email address is not valid")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrTeamNameRequired    = errors.New("team name is required")
	ErrRegistrationNotOpen = errors.New("tournament registration is not open")
	ErrTournamentNotActive = errors.New("games can only be recorded while the tournament is active")
	ErrTournamentLocked    = errors.New("tournament is completed or canceled and can no longer be changed")
	ErrParticipantMismatch = errors.New("registration does not match the tournament participant type")
	ErrGameInvalid         = errors.New("game is not valid")
	ErrFormulaInvalid      = errors.New("scoring formula is not valid")

	// Conflicts
	ErrUserEmailConflict      = errors.New("email address is already in use")
	ErrUserNicknameConflict   = errors.New("nickname is already in use")
	ErrTeamNameConflict       = errors.New("team name is already in use")
	ErrTeamMemberConflict     = errors.New("user is already a member of this team")
	ErrRegistrationConflict   = errors.New("user or team is already registered for this tournament")
	ErrTournamentSlugConflict = errors.New("tournament slug is already in use")
	ErrFormulaNameConflict    = errors.New("scoring formula name is already in use")
	ErrFormulaInUse           = errors.New("scoring formula is assigned to a tournament")
	ErrFormulaProtected       = errors.New("built-in scoring formulas cannot be changed or deleted")

	// Authentication and authorization
	ErrUserBanned             = errors.New("user account is banned")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")
	ErrCaptainActionForbidden = errors.New("only the team captain can perform this action")

	// Entities
	ErrUserNotFound        = errors.New("user not found")
	ErrTeamNotFound        = errors.New("team not found")
	ErrTournamentNotFound  = errors.New("tournament not found")
	ErrParticipantNotFound = errors.New("participant registration not found")
	ErrGameNotFound        = errors.New("game not found")
	ErrFormulaNotFound     = errors.New("scoring formula not found")
	ErrSnapshotNotFound    = errors.New("final standings are only available once the tournament is completed")

	// Tournaments
	ErrTournamentNameRequired            = errors.New("tournament name is required")
	ErrTournamentDatesRequired           = errors.New("tournament start and end dates are required")
	ErrTournamentInvalidDateRange        = errors.New("tournament end date must be after start date")
	ErrTournamentInvalidStatus           = errors.New("invalid tournament status provided")
	ErrTournamentInvalidStatusTransition = errors.New("invalid tournament status transition")
	ErrTournamentInvalidParticipantType  = errors.New("participant type must be solo or team")
)
