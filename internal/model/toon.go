package model

// ToonFlags carries a toon's wire-visible flags (gender and such)
type ToonFlags uint32

const (
	ToonFlagMale   ToonFlags = 0x00
	ToonFlagFemale ToonFlags = 0x02

	// ToonFlagsAlways is always ORed into the flags sent on the wire;
	// observed clients reject toons without these bits.
	ToonFlagsAlways ToonFlags = 0x20
)

// Toon is a character owned by exactly one game account.
// Simulation of the character itself lives outside this subsystem; only
// the presence-visible attributes are modeled here.
type Toon struct {
	ID            ToonID
	EntityID      EntityID
	GameAccountID GameAccountID // non-owning back-reference
	Name          string
	ClassID       int64
	Level         int64
	Flags         ToonFlags
	Equipment     []byte // opaque visual-equipment blob, passed through as-is
}
