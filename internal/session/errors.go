package session

import "errors"

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrRoomExists    = errors.New("room name already taken")
	ErrWrongPassword = errors.New("wrong password")
	ErrNotHost       = errors.New("only the host can do that")
	ErrNotMember     = errors.New("not a member of this room")
	ErrUnknownAction = errors.New("unknown action")
	ErrUnknownSong   = errors.New("song not in catalog")
	ErrEmptyRoomName = errors.New("room name is required")
)

// Wire codes for the error taxonomy.
const (
	CodeValidation   = "validation_error"
	CodeNotFound     = "not_found"
	CodeConflict     = "conflict"
	CodeUnauthorized = "unauthorized"
	CodeInternal     = "internal_error"
)

// Code classifies an error into its wire code. Anything the registry did not
// produce itself is reported as internal.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		return CodeNotFound
	case errors.Is(err, ErrRoomExists):
		return CodeConflict
	case errors.Is(err, ErrWrongPassword),
		errors.Is(err, ErrNotHost):
		return CodeUnauthorized
	case errors.Is(err, ErrNotMember),
		errors.Is(err, ErrUnknownAction),
		errors.Is(err, ErrUnknownSong),
		errors.Is(err, ErrEmptyRoomName):
		return CodeValidation
	default:
		return CodeInternal
	}
}
