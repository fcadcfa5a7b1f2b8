package response

import (
	"encoding/json"
	"time"

	"github.com/openbnet/presence/internal/model"
)

// EntityID is an entity identity in API responses
type EntityID struct {
	High uint64 `json:"high"`
	Low  uint64 `json:"low"`
}

// EntityIDFromModel converts a model.EntityID
func EntityIDFromModel(id model.EntityID) EntityID {
	return EntityID{High: id.High, Low: id.Low}
}

// Account represents an account in API responses
type Account struct {
	ID        uint64    `json:"id"`
	EntityID  EntityID  `json:"entity_id"`
	Email     string    `json:"email"`
	BattleTag string    `json:"battle_tag"`
	UserLevel string    `json:"user_level"`
	CreatedAt time.Time `json:"created_at"`
}

// userLevelString maps the model enum to its wire name
func userLevelString(level model.UserLevel) string {
	switch level {
	case model.UserLevelGM:
		return "gm"
	case model.UserLevelAdmin:
		return "admin"
	case model.UserLevelOwner:
		return "owner"
	default:
		return "user"
	}
}

// AccountFromModel converts a model.Account to a response Account
func AccountFromModel(a *model.Account) Account {
	return Account{
		ID:        uint64(a.ID),
		EntityID:  EntityIDFromModel(a.EntityID),
		Email:     a.Email,
		BattleTag: a.BattleTag(),
		UserLevel: userLevelString(a.UserLevel),
		CreatedAt: a.CreatedAt,
	}
}

// GameAccount represents a game account in API responses
type GameAccount struct {
	ID        uint64    `json:"id"`
	EntityID  EntityID  `json:"entity_id"`
	OwnerID   uint64    `json:"owner_id"`
	Program   string    `json:"program"`
	CreatedAt time.Time `json:"created_at"`
}

// GameAccountFromModel converts a model.GameAccount
func GameAccountFromModel(ga *model.GameAccount) GameAccount {
	return GameAccount{
		ID:        uint64(ga.ID),
		EntityID:  EntityIDFromModel(ga.EntityID),
		OwnerID:   uint64(ga.OwnerID),
		Program:   ga.Program.String(),
		CreatedAt: ga.CreatedAt,
	}
}

// VerifyPasswordResponse reports a password check result
type VerifyPasswordResponse struct {
	Valid bool `json:"valid"`
}

// Variant is the wire form of a presence value
type Variant struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// VariantFromModel converts a model.Variant to its wire form
func VariantFromModel(v model.Variant) Variant {
	var payload any
	var typ string
	switch v.Tag() {
	case model.VariantBool:
		typ = "bool"
		payload, _ = v.Bool()
	case model.VariantInt:
		typ = "int"
		payload, _ = v.Int()
	case model.VariantString:
		typ = "string"
		payload, _ = v.String()
	case model.VariantFourCC:
		typ = "fourcc"
		payload, _ = v.FourCC()
	case model.VariantEntityID:
		typ = "entity_id"
		id, _ := v.Entity()
		payload = EntityIDFromModel(id)
	case model.VariantMessage:
		typ = "message"
		payload, _ = v.Message()
	}
	data, _ := json.Marshal(payload)
	return Variant{Type: typ, Value: data}
}

// FieldValue is one queried presence attribute
type FieldValue struct {
	Present bool     `json:"present"`
	Value   *Variant `json:"value,omitempty"`
}

// FieldValueFromModel converts a query result
func FieldValueFromModel(v model.Variant, present bool) FieldValue {
	if !present {
		return FieldValue{Present: false}
	}
	wire := VariantFromModel(v)
	return FieldValue{Present: true, Value: &wire}
}

// FieldOperation is one snapshot entry
type FieldOperation struct {
	Kind    string   `json:"kind"`
	Program string   `json:"program"`
	Group   uint32   `json:"group"`
	Field   uint32   `json:"field"`
	Index   uint64   `json:"index,omitempty"`
	Value   *Variant `json:"value,omitempty"`
}

// FieldOperationFromModel converts a model.FieldOperation
func FieldOperationFromModel(op model.FieldOperation) FieldOperation {
	result := FieldOperation{
		Kind:    op.Kind.String(),
		Program: op.Key.Program.String(),
		Group:   op.Key.Group,
		Field:   op.Key.Field,
		Index:   op.Key.Index,
	}
	if op.Value != nil {
		wire := VariantFromModel(*op.Value)
		result.Value = &wire
	}
	return result
}

// Snapshot is the full attribute set of one entity
type Snapshot struct {
	EntityID   EntityID         `json:"entity_id"`
	Operations []FieldOperation `json:"operations"`
}

// SnapshotFromModel converts an ordered operation list
func SnapshotFromModel(id model.EntityID, ops []model.FieldOperation) Snapshot {
	operations := make([]FieldOperation, len(ops))
	for i, op := range ops {
		operations[i] = FieldOperationFromModel(op)
	}
	return Snapshot{EntityID: EntityIDFromModel(id), Operations: operations}
}

// Session represents an attached session in API responses
type Session struct {
	GameAccountID uint64 `json:"game_account_id"`
}
