package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newPresenceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presence",
		Short: "Presence query and update commands",
	}

	cmd.AddCommand(newPresenceQueryCmd())
	cmd.AddCommand(newPresenceSnapshotCmd())
	cmd.AddCommand(newPresenceSetCmd())

	return cmd
}

func newPresenceQueryCmd() *cobra.Command {
	var program string
	var group, field uint32
	var index uint64

	cmd := &cobra.Command{
		Use:   "query <high> <low>",
		Short: "Query one presence attribute of an entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/api/v1/presence/%s/%s/field?program=%s&group=%d&field=%d",
				args[0], args[1], program, group, field)
			if index != 0 {
				path += fmt.Sprintf("&index=%d", index)
			}

			var result FieldValue
			if err := client.Get(path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&program, "program", "D3", "Program: D3, BNet")
	cmd.Flags().Uint32Var(&group, "group", 0, "Field group (required)")
	cmd.Flags().Uint32Var(&field, "field", 0, "Field number (required)")
	cmd.Flags().Uint64Var(&index, "index", 0, "Repeated-field index")
	_ = cmd.MarkFlagRequired("group")
	_ = cmd.MarkFlagRequired("field")

	return cmd
}

func newPresenceSnapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot <high> <low>",
		Short: "Dump the full attribute set of an entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Snapshot
			path := fmt.Sprintf("/api/v1/presence/%s/%s/snapshot", args[0], args[1])
			if err := client.Get(path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newPresenceSetCmd() *cobra.Command {
	var program, valueType, value string
	var group, field uint32
	var index uint64

	cmd := &cobra.Command{
		Use:   "set <high> <low>",
		Short: "Apply a SET operation to one presence attribute",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !json.Valid([]byte(value)) {
				return fmt.Errorf("--value must be valid JSON")
			}

			req := map[string]any{
				"kind":    "set",
				"program": program,
				"group":   group,
				"field":   field,
				"index":   index,
				"value": map[string]any{
					"type":  valueType,
					"value": json.RawMessage(value),
				},
			}

			path := fmt.Sprintf("/api/v1/presence/%s/%s/field", args[0], args[1])
			if err := client.Post(path, req, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Field operation applied")
			return nil
		},
	}

	cmd.Flags().StringVar(&program, "program", "D3", "Program: D3, BNet")
	cmd.Flags().Uint32Var(&group, "group", 0, "Field group (required)")
	cmd.Flags().Uint32Var(&field, "field", 0, "Field number (required)")
	cmd.Flags().Uint64Var(&index, "index", 0, "Repeated-field index")
	cmd.Flags().StringVar(&valueType, "type", "int", "Value type: bool, int, string, fourcc, entity_id, message")
	cmd.Flags().StringVar(&value, "value", "", "Value payload as JSON (required)")
	_ = cmd.MarkFlagRequired("group")
	_ = cmd.MarkFlagRequired("field")
	_ = cmd.MarkFlagRequired("value")

	return cmd
}
