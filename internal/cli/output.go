package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Account:
		o.printAccount(v)
	case GameAccount:
		o.printGameAccount(v)
	case []GameAccount:
		for _, ga := range v {
			o.printGameAccount(ga)
		}
	case FieldValue:
		o.printFieldValue(v)
	case Snapshot:
		o.printSnapshot(v)
	case VerifyResult:
		fmt.Printf("Valid: %t\n", v.Valid)
	case HealthResult:
		fmt.Printf("Status: %s\n", v.Status)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// EntityID response type (matches API)
type EntityID struct {
	High uint64 `json:"high"`
	Low  uint64 `json:"low"`
}

// Account response type
type Account struct {
	ID        uint64    `json:"id"`
	EntityID  EntityID  `json:"entity_id"`
	Email     string    `json:"email"`
	BattleTag string    `json:"battle_tag"`
	UserLevel string    `json:"user_level"`
	CreatedAt time.Time `json:"created_at"`
}

// GameAccount response type
type GameAccount struct {
	ID        uint64    `json:"id"`
	EntityID  EntityID  `json:"entity_id"`
	OwnerID   uint64    `json:"owner_id"`
	Program   string    `json:"program"`
	CreatedAt time.Time `json:"created_at"`
}

// Variant response type
type Variant struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// FieldValue response type
type FieldValue struct {
	Present bool     `json:"present"`
	Value   *Variant `json:"value,omitempty"`
}

// FieldOperation response type
type FieldOperation struct {
	Kind    string   `json:"kind"`
	Program string   `json:"program"`
	Group   uint32   `json:"group"`
	Field   uint32   `json:"field"`
	Index   uint64   `json:"index,omitempty"`
	Value   *Variant `json:"value,omitempty"`
}

// Snapshot response type
type Snapshot struct {
	EntityID   EntityID         `json:"entity_id"`
	Operations []FieldOperation `json:"operations"`
}

// VerifyResult response type
type VerifyResult struct {
	Valid bool `json:"valid"`
}

// SessionResult response type
type SessionResult struct {
	GameAccountID uint64 `json:"game_account_id"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printAccount(a Account) {
	fmt.Printf("Account:    %s\n", a.BattleTag)
	fmt.Printf("ID:         %d\n", a.ID)
	fmt.Printf("Entity:     %#x/%d\n", a.EntityID.High, a.EntityID.Low)
	fmt.Printf("Email:      %s\n", a.Email)
	fmt.Printf("Level:      %s\n", a.UserLevel)
	fmt.Printf("Created:    %s\n", a.CreatedAt.Format(time.RFC3339))
}

func (o *Output) printGameAccount(ga GameAccount) {
	fmt.Printf("GameAccount: %d (owner %d, program %s)\n", ga.ID, ga.OwnerID, ga.Program)
	fmt.Printf("Entity:      %#x/%d\n", ga.EntityID.High, ga.EntityID.Low)
}

func (o *Output) printFieldValue(f FieldValue) {
	if !f.Present {
		fmt.Println("(absent)")
		return
	}
	fmt.Printf("%s: %s\n", f.Value.Type, string(f.Value.Value))
}

func (o *Output) printSnapshot(s Snapshot) {
	fmt.Printf("Snapshot for %#x/%d (%d operations):\n", s.EntityID.High, s.EntityID.Low, len(s.Operations))
	for _, op := range s.Operations {
		value := ""
		if op.Value != nil {
			value = fmt.Sprintf(" = %s %s", op.Value.Type, string(op.Value.Value))
		}
		fmt.Printf("  %s %s:%d:%d:%d%s\n", op.Kind, op.Program, op.Group, op.Field, op.Index, value)
	}
}
