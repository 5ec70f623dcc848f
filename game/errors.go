package game

import "fmt"

// Kind classifies why an operation was refused. None of them are fatal.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindConflict      Kind = "conflict"
	KindAuthorization Kind = "authorization"
	KindNotFound      Kind = "not_found"
)

// Error is returned by every Room and Registry operation that refuses to
// mutate state. Code is stable and meant for clients, Message for humans.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %v", e.Code, e.Message)
}

// Is matches on Code so wrapped copies still compare equal to the sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	if !ok {
		return false
	}

	return e.Code == t.Code
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	ErrInvalidNick       = newError(KindValidation, "invalid_nick", "The nick must be a string of at least 3 characters.")
	ErrInvalidRoomName   = newError(KindValidation, "invalid_room_name", "The room name must be between 1 and 128 characters.")
	ErrInvalidPassword   = newError(KindValidation, "invalid_password", "Password must be a string or null.")
	ErrInvalidVisibility = newError(KindValidation, "invalid_visibility", "Visibility must be a boolean or null.")
	ErrInvalidStroke     = newError(KindValidation, "invalid_stroke", "The stroke could not be parsed.")
	ErrAlreadyVoted      = newError(KindValidation, "already_voted", "You have already voted to skip.")

	ErrNickTaken     = newError(KindConflict, "nick_taken", "The nick is already taken.")
	ErrRoomExists    = newError(KindConflict, "room_exists", "Room already exists.")
	ErrAlreadyInRoom = newError(KindConflict, "already_in_room", "You are already in a room, leave it first.")

	ErrNotArtist      = newError(KindAuthorization, "not_artist", "The user is not the artist.")
	ErrNotRegistered  = newError(KindAuthorization, "not_registered", "You are not connected to a room.")
	ErrGameNotStarted = newError(KindAuthorization, "game_not_started", "The game has not started yet.")

	ErrRoomNotFound     = newError(KindNotFound, "room_not_found", "Room does not exist.")
	ErrPasswordRequired = newError(KindNotFound, "password_required", "Password is required.")
	ErrPasswordMismatch = newError(KindNotFound, "password_mismatch", "Password does not match.")
	ErrNotInRoom        = newError(KindNotFound, "not_in_room", "You are not in a room, cannot leave.")
	ErrNoPendingRoom    = newError(KindNotFound, "no_pending_room", "Join or create a room before choosing a nick.")
	ErrMemberNotFound   = newError(KindNotFound, "member_not_found", "No such member in this room.")
)
