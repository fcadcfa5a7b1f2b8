package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// UserLevel is the privilege level of an account
type UserLevel uint8

const (
	UserLevelUser UserLevel = iota
	UserLevelGM
	UserLevelAdmin
	UserLevelOwner
)

// Account is a player's top-level identity
type Account struct {
	ID               AccountID
	EntityID         EntityID // canonical wire identity, assigned at construction
	Email            string
	Salt             []byte
	PasswordVerifier []byte
	Name             string // display-name half of the battle tag (immutable)
	Code             int    // 4-digit disambiguation code
	UserLevel        UserLevel
	CreatedAt        time.Time
}

// BattleTag returns the account's full tag, e.g. "Hero#1234"
func (a *Account) BattleTag() string {
	return FormatBattleTag(a.Name, a.Code)
}

// FormatBattleTag renders a name and code as a canonical tag
func FormatBattleTag(name string, code int) string {
	return fmt.Sprintf("%s#%04d", name, code)
}

// ParseBattleTag splits a tag of the form "Name#NNNN" into its parts.
// Returns ErrMalformedTag for anything else.
func ParseBattleTag(tag string) (string, int, error) {
	name, codeStr, ok := strings.Cut(tag, "#")
	if !ok || name == "" {
		return "", 0, fmt.Errorf("%w: %q", ErrMalformedTag, tag)
	}
	code, err := strconv.Atoi(codeStr)
	if err != nil || code < 0 || code > 9999 {
		return "", 0, fmt.Errorf("%w: %q", ErrMalformedTag, tag)
	}
	return name, code, nil
}

// AwayStatus is a game account's away sub-state, set over presence
type AwayStatus uint32

const (
	AwayStatusAvailable AwayStatus = 0x00
	AwayStatusAway      AwayStatus = 0x02
	AwayStatusBusy      AwayStatus = 0x04
)

// BannerConfiguration is the banner cosmetic config of a game account
type BannerConfiguration struct {
	BannerShape     uint32 `json:"banner_shape"`
	SigilMain       uint32 `json:"sigil_main"`
	SigilAccent     uint32 `json:"sigil_accent"`
	PatternColor    uint32 `json:"pattern_color"`
	BackgroundColor uint32 `json:"background_color"`
	SigilColor      uint32 `json:"sigil_color"`
	SigilPlacement  uint32 `json:"sigil_placement"`
	Pattern         uint32 `json:"pattern"`
	UseSigilVariant bool   `json:"use_sigil_variant"`
	EpicBanner      uint32 `json:"epic_banner"`
}

// DefaultBanner returns the banner every new game account starts with
func DefaultBanner() BannerConfiguration {
	return BannerConfiguration{
		BannerShape:     2952440006,
		SigilMain:       976722430,
		SigilAccent:     803826460,
		PatternColor:    1797588777,
		BackgroundColor: 1379006192,
		SigilColor:      1797588777,
		SigilPlacement:  3057352154,
		Pattern:         4173846786,
		UseSigilVariant: true,
		EpicBanner:      0,
	}
}

// ToonRef is an explicit two-state reference to a most-recently-played toon.
// It starts unresolved and only ever moves forward to a real toon id.
type ToonRef struct {
	id       EntityID
	resolved bool
}

// ResolvedToonRef returns a reference already pointing at a toon
func ResolvedToonRef(id EntityID) ToonRef {
	return ToonRef{id: id, resolved: true}
}

// Get returns the referenced toon id and whether the reference is resolved
func (r ToonRef) Get() (EntityID, bool) {
	return r.id, r.resolved
}

// Resolve points the reference at a toon. Once resolved it never reverts
// to unresolved; a later Resolve moves it to the new id.
func (r *ToonRef) Resolve(id EntityID) {
	if id.IsZero() {
		return
	}
	r.id = id
	r.resolved = true
}

// GameAccount is a per-title sub-identity of an Account
type GameAccount struct {
	ID         GameAccountID
	EntityID   EntityID  // canonical wire identity, assigned at construction
	OwnerID    AccountID // non-owning back-reference
	Program    ProgramID
	Banner     BannerConfiguration
	AwayStatus AwayStatus
	LastPlayed ToonRef
	CreatedAt  time.Time
}
