package errors

import "errors"

var (
	ErrAddressAlreadyInUse = errors.New("poll address is already in use")
	ErrInvalidOption       = errors.New("poll option not found")
	ErrUserAlreadyVoted    = errors.New("user already voted on this poll")
	ErrPollNotFound        = errors.New("poll not found")
	ErrInvalidPollInput    = errors.New("invalid poll input")
	ErrInvalidVoteInput    = errors.New("invalid vote input")
	ErrVoteCounterOverflow = errors.New("poll option vote counter overflow")
	ErrConflict            = errors.New("poll engine conflict")
)

// Stable codes surfaced to callers. Clients branch on these values, so they
// must never change once published.
const (
	CodeAddressAlreadyInUse = "AddressAlreadyInUse"
	CodeInvalidOption       = "InvalidOption"
	CodeUserAlreadyVoted    = "UserAlreadyVoted"
	CodePollNotFound        = "PollNotFound"
	CodeInvalidPollInput    = "InvalidPollInput"
	CodeInvalidVoteInput    = "InvalidVoteInput"
	CodeVoteCounterOverflow = "VoteCounterOverflow"
	CodeConflict            = "Conflict"
)

// Code returns the stable code for a domain error, or "" for errors that are
// not part of the poll engine taxonomy.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAddressAlreadyInUse):
		return CodeAddressAlreadyInUse
	case errors.Is(err, ErrInvalidOption):
		return CodeInvalidOption
	case errors.Is(err, ErrUserAlreadyVoted):
		return CodeUserAlreadyVoted
	case errors.Is(err, ErrPollNotFound):
		return CodePollNotFound
	case errors.Is(err, ErrInvalidPollInput):
		return CodeInvalidPollInput
	case errors.Is(err, ErrInvalidVoteInput):
		return CodeInvalidVoteInput
	case errors.Is(err, ErrVoteCounterOverflow):
		return CodeVoteCounterOverflow
	case errors.Is(err, ErrConflict):
		return CodeConflict
	default:
		return ""
	}
}

// FromCode is the inverse of Code. It lets remote callers (chaincode clients,
// HTTP clients) turn a surfaced code back into a sentinel for errors.Is.
func FromCode(code string) error {
	switch code {
	case CodeAddressAlreadyInUse:
		return ErrAddressAlreadyInUse
	case CodeInvalidOption:
		return ErrInvalidOption
	case CodeUserAlreadyVoted:
		return ErrUserAlreadyVoted
	case CodePollNotFound:
		return ErrPollNotFound
	case CodeInvalidPollInput:
		return ErrInvalidPollInput
	case CodeInvalidVoteInput:
		return ErrInvalidVoteInput
	case CodeVoteCounterOverflow:
		return ErrVoteCounterOverflow
	case CodeConflict:
		return ErrConflict
	default:
		return nil
	}
}
