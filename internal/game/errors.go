package game

import "errors"

// Structural errors reject a call before any state is touched.
var (
	ErrGameNotFound     = errors.New("game not found")
	ErrSeatTaken        = errors.New("seat taken")
	ErrAlreadyInGame    = errors.New("already seated in game")
	ErrNotEnoughPlayers = errors.New("not enough players")
)

// Turn and legality errors reject the single offending call.
var (
	ErrNotYourTurn    = errors.New("not your turn")
	ErrInvalidAction  = errors.New("invalid action")
	ErrRaiseTooHigh   = errors.New("raise too high")
	ErrNotInShowdown  = errors.New("not in showdown")
	ErrStateViolation = errors.New("state violation")
)

// Fairness errors protect the commit-reveal guarantees.
var (
	ErrInviteInvalid     = errors.New("invite secret invalid")
	ErrInvalidCommitment = errors.New("invalid commitment")
)
