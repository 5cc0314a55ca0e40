package entities

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
)

const receiptSeed = "vote-receipt"

// VoteReceipt proves that VoterID already voted on PollID. It is created once,
// never updated and never deleted; only its existence is ever checked.
type VoteReceipt struct {
	Address   string
	PollID    string
	VoterID   string
	CreatedAt time.Time
}

func NewVoteReceipt(pollID string, voterID string, now time.Time) VoteReceipt {
	pollID = strings.TrimSpace(pollID)
	voterID = strings.TrimSpace(voterID)
	return VoteReceipt{
		Address:   ReceiptAddress(pollID, voterID),
		PollID:    pollID,
		VoterID:   voterID,
		CreatedAt: now.UTC(),
	}
}

// ReceiptAddress derives the receipt slot for a (poll, voter) pair. Each part
// is length-prefixed so ("ab","c") and ("a","bc") land on different slots.
func ReceiptAddress(pollID string, voterID string) string {
	return crypto.Keccak256Hash(
		[]byte(receiptSeed),
		lengthPrefixed(strings.TrimSpace(pollID)),
		lengthPrefixed(strings.TrimSpace(voterID)),
	).Hex()
}

func lengthPrefixed(value string) []byte {
	out := make([]byte, 4, 4+len(value))
	binary.BigEndian.PutUint32(out, uint32(len(value)))
	return append(out, value...)
}
