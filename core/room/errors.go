package room

import "errors"

// Authorization errors. These never mutate state and are reported as a
// distinct category from validation so clients can tell "you can't do
// this" apart from "this input is wrong".
var (
	ErrNotAdministrator = errors.New("only the room administrator may do this")
	ErrNotParticipant   = errors.New("not a participant of this room")
	ErrNotTrackOwner    = errors.New("only the uploader or the administrator may remove this track")
)

// State-conflict errors.
var (
	ErrAlreadyParticipant = errors.New("already a participant of this room")
	ErrAdminCannotLeave   = errors.New("the administrator cannot leave; delete the room instead")
)

// Not-found errors.
var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrTrackNotFound  = errors.New("track not found")
	ErrTrackNotInRoom = errors.New("track does not belong to this room")
)

// Validation errors, reported before any persistence attempt.
var (
	ErrRoomNameEmpty   = errors.New("room name must not be empty")
	ErrRoomNameTooLong = errors.New("room name is too long")
)
