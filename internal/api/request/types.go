package request

import (
	"encoding/json"
	"fmt"

	"github.com/openbnet/presence/internal/model"
)

// CreateAccountRequest is the request body for creating an account
type CreateAccountRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	BattleTag string `json:"battle_tag"`
	UserLevel string `json:"user_level,omitempty"`
}

// VerifyPasswordRequest is the request body for checking a password
type VerifyPasswordRequest struct {
	Password string `json:"password"`
}

// UpdateUserLevelRequest is the request body for changing an account's
// privilege level
type UpdateUserLevelRequest struct {
	UserLevel string `json:"user_level"`
}

// AttachSessionRequest is the request body for attaching a session
type AttachSessionRequest struct {
	GameAccountID uint64 `json:"game_account_id"`
}

// Variant is the wire form of a presence value
type Variant struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// ApplyFieldRequest is the request body for applying one field operation
type ApplyFieldRequest struct {
	Kind    string   `json:"kind"` // "set" or "clear"
	Program string   `json:"program"`
	Group   uint32   `json:"group"`
	Field   uint32   `json:"field"`
	Index   uint64   `json:"index,omitempty"`
	Value   *Variant `json:"value,omitempty"`
}

// UserLevelFromString maps a wire level name to the model enum
func UserLevelFromString(level string) (model.UserLevel, error) {
	switch level {
	case "", "user":
		return model.UserLevelUser, nil
	case "gm":
		return model.UserLevelGM, nil
	case "admin":
		return model.UserLevelAdmin, nil
	case "owner":
		return model.UserLevelOwner, nil
	default:
		return 0, fmt.Errorf("unknown user level %q", level)
	}
}

// ProgramFromString maps a wire program name to the model enum
func ProgramFromString(program string) (model.ProgramID, error) {
	switch program {
	case "D3":
		return model.ProgramD3, nil
	case "BNet", "BN":
		return model.ProgramBNet, nil
	default:
		return 0, fmt.Errorf("unknown program %q", program)
	}
}

// ToModel decodes the wire variant into a model variant
func (v Variant) ToModel() (model.Variant, error) {
	switch v.Type {
	case "bool":
		var b bool
		if err := json.Unmarshal(v.Value, &b); err != nil {
			return model.Variant{}, err
		}
		return model.BoolVariant(b), nil
	case "int":
		var i int64
		if err := json.Unmarshal(v.Value, &i); err != nil {
			return model.Variant{}, err
		}
		return model.IntVariant(i), nil
	case "string":
		var s string
		if err := json.Unmarshal(v.Value, &s); err != nil {
			return model.Variant{}, err
		}
		return model.StringVariant(s), nil
	case "fourcc":
		var s string
		if err := json.Unmarshal(v.Value, &s); err != nil {
			return model.Variant{}, err
		}
		return model.FourCCVariant(s), nil
	case "entity_id":
		var id model.EntityID
		if err := json.Unmarshal(v.Value, &id); err != nil {
			return model.Variant{}, err
		}
		return model.EntityIDVariant(id), nil
	case "message":
		var data []byte
		if err := json.Unmarshal(v.Value, &data); err != nil {
			return model.Variant{}, err
		}
		return model.MessageVariant(data), nil
	default:
		return model.Variant{}, fmt.Errorf("unknown variant type %q", v.Type)
	}
}
