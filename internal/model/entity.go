package model

import "fmt"

// AccountID is the persistent low id of an account, derived from its battle tag
type AccountID uint64

// GameAccountID is the persistent low id of a game account.
// A freshly created game account aliases its owner's low id; only the
// high component of the entity id distinguishes the two on the wire.
type GameAccountID uint64

// ToonID is the persistent low id of a character
type ToonID uint64

// EntityID is the composite wire identity of any persistent entity
type EntityID struct {
	High uint64 `json:"high"`
	Low  uint64 `json:"low"`
}

// HighIDType is the namespace tag carried in the upper bits of EntityID.High
type HighIDType uint64

// Namespace tags, one per entity category
const (
	HighIDAccount     HighIDType = 0x1
	HighIDGameAccount HighIDType = 0x2
	HighIDToon        HighIDType = 0x3
	HighIDChannel     HighIDType = 0x4
)

// highIDShift is the number of low-order bits reserved for the sequential
// or derived id component
const highIDShift = 56

// gameAccountTitleTag marks a game account high id as belonging to the
// supported title. Fixed wire constant; peers match on it byte-for-byte.
const gameAccountTitleTag = 0x6200004433

// AccountEntityID returns the wire identity for an account low id
func AccountEntityID(low AccountID) EntityID {
	return EntityID{High: uint64(HighIDAccount) << highIDShift, Low: uint64(low)}
}

// GameAccountEntityID returns the wire identity for a game account low id
func GameAccountEntityID(low GameAccountID) EntityID {
	return EntityID{High: uint64(HighIDGameAccount)<<highIDShift | gameAccountTitleTag, Low: uint64(low)}
}

// ToonEntityID returns the wire identity for a toon low id
func ToonEntityID(low ToonID) EntityID {
	return EntityID{High: uint64(HighIDToon) << highIDShift, Low: uint64(low)}
}

// ChannelEntityID returns the wire identity for a channel low id
func ChannelEntityID(low uint64) EntityID {
	return EntityID{High: uint64(HighIDChannel) << highIDShift, Low: low}
}

// HighType extracts the namespace tag from the high component
func (id EntityID) HighType() HighIDType {
	return HighIDType(id.High >> highIDShift)
}

// IsZero reports whether the id is the "no entity" sentinel
func (id EntityID) IsZero() bool {
	return id.High == 0 && id.Low == 0
}

func (id EntityID) String() string {
	return fmt.Sprintf("%#x-%#x", id.High, id.Low)
}
