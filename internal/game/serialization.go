package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ChecksumVersion identifies the canonical layout hashed by Checksum.
const ChecksumVersion = 1

// ErrChecksumMismatch is returned when a stored state no longer matches its checksum.
var ErrChecksumMismatch = errors.New("game state checksum mismatch")

// Checksum computes a deterministic SHA-256 of the state. Two participants
// holding the same game produce the same value regardless of how the state
// was transported.
func (s *State) Checksum() string {
	sum := sha256.Sum256([]byte(s.canonical()))
	return hex.EncodeToString(sum[:])
}

// VerifyChecksum recomputes the checksum and compares it with expected.
func (s *State) VerifyChecksum(expected string) error {
	computed := s.Checksum()
	if computed != expected {
		return fmt.Errorf("%w: stored=%s computed=%s", ErrChecksumMismatch, expected, computed)
	}
	return nil
}

// canonical renders every field that affects play in a fixed order.
func (s *State) canonical() string {
	if s == nil {
		return "NIL\n"
	}
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "GAME:v%d|%s|%d|%d,%d\n",
		ChecksumVersion,
		s.Phase,
		s.CurrentPlayerIndex,
		s.Dice[0], s.Dice[1],
	)

	// Turn order matters, so players are not sorted.
	for _, p := range s.Players {
		fmt.Fprintf(&buf, "PLAYER:%s|%s|%d|%d|%s|%t|%d|%d\n",
			p.ID,
			p.Name,
			p.Money,
			p.Position,
			p.Color,
			p.InJail,
			p.JailTurns,
			p.GetOutOfJailFreeCards,
		)
	}

	for _, sq := range s.Board {
		owner := "-"
		if sq.OwnerID != nil {
			owner = *sq.OwnerID
		}
		fmt.Fprintf(&buf, "SQUARE:%d|%s|%s|%d|%s|%d|%d\n",
			sq.ID,
			sq.Kind,
			sq.Name,
			sq.Price,
			owner,
			sq.Houses,
			sq.Amount,
		)
	}

	buf.WriteString("LOG:")
	buf.WriteString(strings.Join(s.Log, "\x1f"))
	buf.WriteString("\n")

	if s.Winner != nil {
		fmt.Fprintf(&buf, "WINNER:%s\n", s.Winner.ID)
	}

	return buf.String()
}
