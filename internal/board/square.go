package board

import (
	"fmt"
	"strings"
)

// Kind identifies which variant of the square union a Square holds.
type Kind int

const (
	KindProperty Kind = iota
	KindRailroad
	KindUtility
	KindChance
	KindCommunityChest
	KindTax
	KindGo
	KindJail
	KindFreeParking
	KindGoToJail
)

var kindNames = map[Kind]string{
	KindProperty:       "PROPERTY",
	KindRailroad:       "RAILROAD",
	KindUtility:        "UTILITY",
	KindChance:         "CHANCE",
	KindCommunityChest: "COMMUNITY_CHEST",
	KindTax:            "TAX",
	KindGo:             "GO",
	KindJail:           "JAIL",
	KindFreeParking:    "FREE_PARKING",
	KindGoToJail:       "GO_TO_JAIL",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("KIND_%d", int(k))
}

// MarshalText encodes the kind by name so persisted boards stay readable.
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("unknown square kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (k *Kind) UnmarshalText(text []byte) error {
	name := strings.ToUpper(strings.TrimSpace(string(text)))
	for kind, n := range kindNames {
		if n == name {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown square kind %q", string(text))
}

// MaxHouses is the improvement level that denotes a hotel.
const MaxHouses = 5

// Square is one position on the board. Price, Rent, Color, OwnerID and
// Houses only apply to purchasable kinds; Amount only applies to KindTax.
type Square struct {
	ID      int     `json:"id"`
	Name    string  `json:"name"`
	Kind    Kind    `json:"type"`
	Price   int     `json:"price,omitempty"`
	Rent    []int   `json:"rent,omitempty"`
	Color   string  `json:"color,omitempty"`
	OwnerID *string `json:"ownerId,omitempty"`
	Houses  int     `json:"houses,omitempty"`
	Amount  int     `json:"amount,omitempty"`
}

// Purchasable reports whether the square can be bought at all.
func (s Square) Purchasable() bool {
	switch s.Kind {
	case KindProperty, KindRailroad, KindUtility:
		return true
	default:
		return false
	}
}

// Owned reports whether any player holds the square.
func (s Square) Owned() bool {
	return s.OwnerID != nil
}

// OwnedBy reports whether playerID holds the square.
func (s Square) OwnedBy(playerID string) bool {
	return s.OwnerID != nil && *s.OwnerID == playerID
}

// SetOwner records playerID as the owner.
func (s *Square) SetOwner(playerID string) {
	id := playerID
	s.OwnerID = &id
}

// Release returns the square to the bank and removes any improvements.
func (s *Square) Release() {
	s.OwnerID = nil
	s.Houses = 0
}

// Clone deep-copies a board so the copy shares no owner pointers or rent slices.
func Clone(squares []Square) []Square {
	if squares == nil {
		return nil
	}
	out := make([]Square, len(squares))
	for i, sq := range squares {
		out[i] = sq
		if sq.Rent != nil {
			out[i].Rent = append([]int(nil), sq.Rent...)
		}
		if sq.OwnerID != nil {
			id := *sq.OwnerID
			out[i].OwnerID = &id
		}
	}
	return out
}

// CountOwned returns how many squares of the given kind playerID holds.
func CountOwned(squares []Square, kind Kind, playerID string) int {
	n := 0
	for _, sq := range squares {
		if sq.Kind == kind && sq.OwnedBy(playerID) {
			n++
		}
	}
	return n
}
