package presence

import (
	"encoding/json"
	"fmt"

	"github.com/openbnet/presence/internal/model"
)

// Attribute addresses. The account scope and the title scope use
// disjoint group ranges; index is 0 except for the game-account list,
// which repeats per owned game account.
var (
	// Account scope
	KeyAccountLastToon  = model.FieldKey{Program: model.ProgramD3, Group: 1, Field: 1}
	KeyAccountSelected  = model.FieldKey{Program: model.ProgramD3, Group: 1, Field: 2}
	KeyAccountRealName  = model.FieldKey{Program: model.ProgramBNet, Group: 1, Field: 1}
	KeyAccountOnline    = model.FieldKey{Program: model.ProgramBNet, Group: 1, Field: 2}
	KeyAccountGameList  = model.FieldKey{Program: model.ProgramBNet, Group: 1, Field: 4}
	KeyAccountBattleTag = model.FieldKey{Program: model.ProgramBNet, Group: 1, Field: 5}

	// Game account scope
	KeyGameBanner     = model.FieldKey{Program: model.ProgramD3, Group: 2, Field: 1}
	KeyGameToon       = model.FieldKey{Program: model.ProgramD3, Group: 2, Field: 2}
	KeyHeroClass      = model.FieldKey{Program: model.ProgramD3, Group: 3, Field: 1}
	KeyHeroLevel      = model.FieldKey{Program: model.ProgramD3, Group: 3, Field: 2}
	KeyHeroEquipment  = model.FieldKey{Program: model.ProgramD3, Group: 3, Field: 3}
	KeyHeroFlags      = model.FieldKey{Program: model.ProgramD3, Group: 3, Field: 4}
	KeyHeroName       = model.FieldKey{Program: model.ProgramD3, Group: 3, Field: 5}
	KeyGameChannel    = model.FieldKey{Program: model.ProgramD3, Group: 4, Field: 1}
	KeyGameScreen     = model.FieldKey{Program: model.ProgramD3, Group: 4, Field: 2}
	KeyGamePartyHint  = model.FieldKey{Program: model.ProgramD3, Group: 4, Field: 3}
	KeyGameSession    = model.FieldKey{Program: model.ProgramBNet, Group: 2, Field: 1}
	KeyGameAway       = model.FieldKey{Program: model.ProgramBNet, Group: 2, Field: 3}
	KeyGameProgram    = model.FieldKey{Program: model.ProgramBNet, Group: 2, Field: 4}
	KeyGameJoinPerm   = model.FieldKey{Program: model.ProgramBNet, Group: 2, Field: 5}
	KeyGameBattleTag  = model.FieldKey{Program: model.ProgramBNet, Group: 2, Field: 6}
	KeyGameAccountRef = model.FieldKey{Program: model.ProgramBNet, Group: 2, Field: 7}
)

// joinPermissionValue is the fixed wire value for the join-permission
// attribute; observed clients send and expect exactly this.
const joinPermissionValue = 1324923597904795

// programFourCC renders a program id as its wire 4-byte code
func programFourCC(p model.ProgramID) string {
	if p == model.ProgramD3 {
		return "D3"
	}
	return "BN"
}

// encodeBanner renders a banner config as an opaque message payload
func encodeBanner(banner model.BannerConfiguration) model.Variant {
	data, _ := json.Marshal(banner)
	return model.MessageVariant(data)
}

func decodeBanner(v model.Variant) (model.BannerConfiguration, error) {
	data, err := v.Message()
	if err != nil {
		return model.BannerConfiguration{}, err
	}
	var banner model.BannerConfiguration
	if err := json.Unmarshal(data, &banner); err != nil {
		return model.BannerConfiguration{}, fmt.Errorf("malformed banner payload: %w", err)
	}
	return banner, nil
}

// accountReadTable declares the queryable account-scope attributes
func accountReadTable() map[fieldAddr]accountReadFn {
	return map[fieldAddr]accountReadFn{
		addrOf(KeyAccountLastToon): func(e *Engine, account *model.Account) (model.Variant, bool) {
			gameAccounts := e.registry.GameAccountsFor(account.ID)
			if len(gameAccounts) == 0 {
				return model.Variant{}, false
			}
			toonID, _ := e.registry.ResolveLastPlayed(gameAccounts[0])
			return model.EntityIDVariant(toonID), true
		},
		addrOf(KeyAccountSelected): func(e *Engine, account *model.Account) (model.Variant, bool) {
			gameAccounts := e.registry.GameAccountsFor(account.ID)
			if len(gameAccounts) == 0 {
				return model.Variant{}, false
			}
			return model.EntityIDVariant(gameAccounts[0].EntityID), true
		},
		addrOf(KeyAccountRealName): func(e *Engine, account *model.Account) (model.Variant, bool) {
			return model.StringVariant(account.BattleTag()), true
		},
		addrOf(KeyAccountOnline): func(e *Engine, account *model.Account) (model.Variant, bool) {
			return model.BoolVariant(e.sessions.AccountOnline(account.ID)), true
		},
		addrOf(KeyAccountBattleTag): func(e *Engine, account *model.Account) (model.Variant, bool) {
			return model.StringVariant(account.BattleTag()), true
		},
	}
}

// gameReadTable declares the queryable game-account-scope attributes
func gameReadTable() map[fieldAddr]gameReadFn {
	return map[fieldAddr]gameReadFn{
		addrOf(KeyGameBanner): func(e *Engine, ga *model.GameAccount) (model.Variant, bool) {
			return encodeBanner(ga.Banner), true
		},
		addrOf(KeyHeroClass): func(e *Engine, ga *model.GameAccount) (model.Variant, bool) {
			if toon, ok := e.currentToon(ga); ok {
				return model.IntVariant(toon.ClassID), true
			}
			return model.Variant{}, false
		},
		addrOf(KeyHeroLevel): func(e *Engine, ga *model.GameAccount) (model.Variant, bool) {
			if toon, ok := e.currentToon(ga); ok {
				return model.IntVariant(toon.Level), true
			}
			return model.Variant{}, false
		},
		addrOf(KeyHeroEquipment): func(e *Engine, ga *model.GameAccount) (model.Variant, bool) {
			if toon, ok := e.currentToon(ga); ok {
				return model.MessageVariant(toon.Equipment), true
			}
			return model.Variant{}, false
		},
		addrOf(KeyHeroFlags): func(e *Engine, ga *model.GameAccount) (model.Variant, bool) {
			if toon, ok := e.currentToon(ga); ok {
				return model.IntVariant(int64(toon.Flags | model.ToonFlagsAlways)), true
			}
			return model.Variant{}, false
		},
		addrOf(KeyHeroName): func(e *Engine, ga *model.GameAccount) (model.Variant, bool) {
			if toon, ok := e.currentToon(ga); ok {
				return model.StringVariant(toon.Name), true
			}
			return model.Variant{}, false
		},
		addrOf(KeyGameChannel): func(e *Engine, ga *model.GameAccount) (model.Variant, bool) {
			if channel, ok := e.sessions.Channel(ga.ID); ok {
				return model.EntityIDVariant(channel), true
			}
			return model.Variant{}, false
		},
		addrOf(KeyGameScreen): func(e *Engine, ga *model.GameAccount) (model.Variant, bool) {
			// all known values mean "in menus"
			return model.IntVariant(0), true
		},
		addrOf(KeyGameProgram): func(e *Engine, ga *model.GameAccount) (model.Variant, bool) {
			return model.FourCCVariant(programFourCC(ga.Program)), true
		},
		addrOf(KeyGameBattleTag): func(e *Engine, ga *model.GameAccount) (model.Variant, bool) {
			owner, ok := e.registry.OwnerOf(ga)
			if !ok {
				return model.Variant{}, false
			}
			return model.StringVariant(owner.BattleTag()), true
		},
	}
}

// gameWriteTable declares the settable game-account-scope attributes
func gameWriteTable() map[fieldAddr]gameWriteFn {
	return map[fieldAddr]gameWriteFn{
		addrOf(KeyGameBanner): func(e *Engine, ga *model.GameAccount, op model.FieldOperation) error {
			banner, err := decodeBanner(*op.Value)
			if err != nil {
				return err
			}
			ga.Banner = banner
			return nil
		},
		addrOf(KeyGameAway): func(e *Engine, ga *model.GameAccount, op model.FieldOperation) error {
			status, err := op.Value.Int()
			if err != nil {
				return err
			}
			ga.AwayStatus = model.AwayStatus(status)
			return nil
		},
		addrOf(KeyGameChannel): func(e *Engine, ga *model.GameAccount, op model.FieldOperation) error {
			channel, err := op.Value.Entity()
			if err != nil {
				// some client builds send an empty SET instead of a CLEAR
				return fmt.Errorf("channel set without entity id: %w", err)
			}
			if !e.sessions.SetChannel(ga.ID, channel) {
				return model.ErrSessionNotLive
			}
			return nil
		},
		addrOf(KeyGameScreen): func(e *Engine, ga *model.GameAccount, op model.FieldOperation) error {
			// current screen; tracked nowhere, accepted to avoid warn
			// spam on client start and exit
			return nil
		},
		addrOf(KeyGamePartyHint): func(e *Engine, ga *model.GameAccount, op model.FieldOperation) error {
			// party-leader flags or open-game message; accepted, unmodeled
			return nil
		},
	}
}

// currentToon resolves the game account's most-recently-played toon
func (e *Engine) currentToon(ga *model.GameAccount) (*model.Toon, bool) {
	toonID, ok := e.registry.ResolveLastPlayed(ga)
	if !ok || toonID.IsZero() {
		return nil, false
	}
	return e.characters.ToonByEntityID(toonID)
}

// accountSnapshot enumerates the full account attribute set, owner-scope
// attributes first, in fixed declaration order
func (e *Engine) accountSnapshot(account *model.Account) []model.FieldOperation {
	ops := make([]model.FieldOperation, 0, 8)
	gameAccounts := e.registry.GameAccountsFor(account.ID)

	if len(gameAccounts) > 0 {
		// last played toon; the zero sentinel when no toon exists yet
		toonID, _ := e.registry.ResolveLastPlayed(gameAccounts[0])
		ops = append(ops, model.SetOp(KeyAccountLastToon, model.EntityIDVariant(toonID)))

		// selected game account
		ops = append(ops, model.SetOp(KeyAccountSelected, model.EntityIDVariant(gameAccounts[0].EntityID)))
	}

	// real-id name slot carries the battle tag; real names are not used
	ops = append(ops, model.SetOp(KeyAccountRealName, model.StringVariant(account.BattleTag())))

	// online flag. Always true here: a snapshot is only built for a
	// subscriber being served by a live session. The transition
	// notification path carries the real aggregate value.
	ops = append(ops, model.SetOp(KeyAccountOnline, model.BoolVariant(true)))

	// one entry per owned game account, indexed by the child's high id
	for _, ga := range gameAccounts {
		key := KeyAccountGameList
		key.Index = ga.EntityID.High
		ops = append(ops, model.SetOp(key, model.EntityIDVariant(ga.EntityID)))
	}

	ops = append(ops, model.SetOp(KeyAccountBattleTag, model.StringVariant(account.BattleTag())))
	return ops
}

// gameAccountSnapshot enumerates the full game-account attribute set.
// Character-scoped entries are omitted entirely when no most-recently-
// played character exists.
func (e *Engine) gameAccountSnapshot(ga *model.GameAccount) []model.FieldOperation {
	ops := make([]model.FieldOperation, 0, 12)

	ops = append(ops, model.SetOp(KeyGameBanner, encodeBanner(ga.Banner)))

	if toon, ok := e.currentToon(ga); ok {
		ops = append(ops,
			model.SetOp(KeyGameToon, model.EntityIDVariant(toon.EntityID)),
			model.SetOp(KeyHeroClass, model.IntVariant(toon.ClassID)),
			model.SetOp(KeyHeroLevel, model.IntVariant(toon.Level)),
			model.SetOp(KeyHeroEquipment, model.MessageVariant(toon.Equipment)),
			model.SetOp(KeyHeroFlags, model.IntVariant(int64(toon.Flags|model.ToonFlagsAlways))),
			model.SetOp(KeyHeroName, model.StringVariant(toon.Name)),
		)
	}

	ops = append(ops, model.SetOp(KeyGameSession, model.BoolVariant(true)))
	ops = append(ops, model.SetOp(KeyGameProgram, model.FourCCVariant(programFourCC(ga.Program))))
	ops = append(ops, model.SetOp(KeyGameJoinPerm, model.IntVariant(joinPermissionValue)))

	if owner, ok := e.registry.OwnerOf(ga); ok {
		ops = append(ops, model.SetOp(KeyGameBattleTag, model.StringVariant(owner.BattleTag())))
		ops = append(ops, model.SetOp(KeyGameAccountRef, model.StringVariant(fmt.Sprintf("%d#1", uint64(owner.ID)))))
	}

	return ops
}
