package model

import "fmt"

// ProgramID is the protocol domain half of a field address, fourCC-coded
type ProgramID uint32

const (
	// ProgramBNet addresses account-scope service attributes ("BN")
	ProgramBNet ProgramID = 0x424E
	// ProgramD3 addresses title-scope attributes ("D3")
	ProgramD3 ProgramID = 0x4433
)

func (p ProgramID) String() string {
	switch p {
	case ProgramBNet:
		return "BNet"
	case ProgramD3:
		return "D3"
	default:
		return fmt.Sprintf("ProgramID(%#x)", uint32(p))
	}
}

// FieldKey is the four-part address of a single presence attribute
type FieldKey struct {
	Program ProgramID `json:"program"`
	Group   uint32    `json:"group"`
	Field   uint32    `json:"field"`
	// Index is 0 for scalar attributes. List-valued attributes repeat a
	// (group, field) pair and disambiguate entries by index, keyed by the
	// referenced sub-entity's own high id.
	Index uint64 `json:"index"`
}

func (k FieldKey) String() string {
	return fmt.Sprintf("%s:%d:%d:%d", k.Program, k.Group, k.Field, k.Index)
}

// VariantTag identifies which of the six value types a Variant holds
type VariantTag uint8

const (
	VariantBool VariantTag = iota
	VariantInt
	VariantString
	VariantFourCC
	VariantEntityID
	VariantMessage
)

func (t VariantTag) String() string {
	switch t {
	case VariantBool:
		return "bool"
	case VariantInt:
		return "int"
	case VariantString:
		return "string"
	case VariantFourCC:
		return "fourcc"
	case VariantEntityID:
		return "entity_id"
	case VariantMessage:
		return "message"
	default:
		return fmt.Sprintf("VariantTag(%d)", uint8(t))
	}
}

// Variant is the tagged value transported for a presence attribute.
// Accessors fail with ErrVariantType when the held tag does not match;
// they never coerce.
type Variant struct {
	tag      VariantTag
	boolVal  bool
	intVal   int64
	strVal   string // holds both string and fourCC payloads
	entityID EntityID
	message  []byte
}

// BoolVariant wraps a boolean value
func BoolVariant(v bool) Variant { return Variant{tag: VariantBool, boolVal: v} }

// IntVariant wraps an integer value
func IntVariant(v int64) Variant { return Variant{tag: VariantInt, intVal: v} }

// StringVariant wraps a string value
func StringVariant(v string) Variant { return Variant{tag: VariantString, strVal: v} }

// FourCCVariant wraps a 4-byte code value
func FourCCVariant(v string) Variant { return Variant{tag: VariantFourCC, strVal: v} }

// EntityIDVariant wraps an entity id value
func EntityIDVariant(v EntityID) Variant { return Variant{tag: VariantEntityID, entityID: v} }

// MessageVariant wraps an opaque structured-message payload
func MessageVariant(v []byte) Variant { return Variant{tag: VariantMessage, message: v} }

// Tag returns which value type the variant holds
func (v Variant) Tag() VariantTag { return v.tag }

func (v Variant) tagErr(want VariantTag) error {
	return fmt.Errorf("%w: want %s, have %s", ErrVariantType, want, v.tag)
}

// Bool returns the boolean payload
func (v Variant) Bool() (bool, error) {
	if v.tag != VariantBool {
		return false, v.tagErr(VariantBool)
	}
	return v.boolVal, nil
}

// Int returns the integer payload
func (v Variant) Int() (int64, error) {
	if v.tag != VariantInt {
		return 0, v.tagErr(VariantInt)
	}
	return v.intVal, nil
}

// String returns the string payload
func (v Variant) String() (string, error) {
	if v.tag != VariantString {
		return "", v.tagErr(VariantString)
	}
	return v.strVal, nil
}

// FourCC returns the 4-byte-code payload
func (v Variant) FourCC() (string, error) {
	if v.tag != VariantFourCC {
		return "", v.tagErr(VariantFourCC)
	}
	return v.strVal, nil
}

// Entity returns the entity id payload
func (v Variant) Entity() (EntityID, error) {
	if v.tag != VariantEntityID {
		return EntityID{}, v.tagErr(VariantEntityID)
	}
	return v.entityID, nil
}

// Message returns the opaque message payload
func (v Variant) Message() ([]byte, error) {
	if v.tag != VariantMessage {
		return nil, v.tagErr(VariantMessage)
	}
	return v.message, nil
}

// Equal reports whether two variants hold the same tag and payload
func (v Variant) Equal(o Variant) bool {
	if v.tag != o.tag {
		return false
	}
	switch v.tag {
	case VariantBool:
		return v.boolVal == o.boolVal
	case VariantInt:
		return v.intVal == o.intVal
	case VariantString, VariantFourCC:
		return v.strVal == o.strVal
	case VariantEntityID:
		return v.entityID == o.entityID
	case VariantMessage:
		return string(v.message) == string(o.message)
	}
	return false
}

// OpKind is the kind of a field operation
type OpKind uint8

const (
	OpSet OpKind = iota
	OpClear
)

func (k OpKind) String() string {
	if k == OpClear {
		return "CLEAR"
	}
	return "SET"
}

// FieldOperation is a single update instruction against one attribute
type FieldOperation struct {
	Kind  OpKind
	Key   FieldKey
	Value *Variant // nil for CLEAR
}

// SetOp builds a SET operation
func SetOp(key FieldKey, value Variant) FieldOperation {
	return FieldOperation{Kind: OpSet, Key: key, Value: &value}
}

// ClearOp builds a CLEAR operation
func ClearOp(key FieldKey) FieldOperation {
	return FieldOperation{Kind: OpClear, Key: key}
}
