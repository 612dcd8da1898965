package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/TimurManjosov/segmentfilter/internal/choice"
	"github.com/TimurManjosov/segmentfilter/internal/client"
	"github.com/TimurManjosov/segmentfilter/internal/store"
	"github.com/TimurManjosov/segmentfilter/internal/widget"
)

// OutputFormat specifies the output format for CLI commands
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// Printer renders API results in one output format.
type Printer struct {
	W      io.Writer
	Format OutputFormat
}

// FieldTypes prints field type names.
func (p Printer) FieldTypes(types []string) error {
	return p.print(map[string][]string{"fieldTypes": types}, func(t *tablewriter.Table) {
		t.Header("Field Type")
		for _, ft := range types {
			_ = t.Append(ft)
		}
	})
}

// Operators prints operators with their labels.
func (p Printer) Operators(ops []client.OperatorLabel) error {
	return p.print(map[string][]client.OperatorLabel{"operators": ops}, func(t *tablewriter.Table) {
		t.Header("Operator", "Label", "Expr", "Negate")
		for _, op := range ops {
			_ = t.Append(op.Operator, op.Label, op.Expr, op.NegateExpr)
		}
	})
}

// Choices prints a choice set, keeping group membership.
func (p Printer) Choices(set choice.Set) error {
	return p.print(map[string]choice.Set{"choices": set}, func(t *tablewriter.Table) {
		t.Header("Group", "Value", "Label")
		for _, c := range set {
			_ = t.Append(c.Group, c.Value, c.Label)
		}
	})
}

// ChoiceFields prints the field types and aliases that carry choices.
func (p Printer) ChoiceFields(f *client.ChoiceFields) error {
	return p.print(f, func(t *tablewriter.Table) {
		t.Header("Kind", "Name")
		for _, ft := range f.Types {
			_ = t.Append("type", ft)
		}
		for _, a := range f.Aliases {
			_ = t.Append("alias", a)
		}
	})
}

// Control prints the filter value control.
func (p Printer) Control(c *widget.Control) error {
	return p.print(c, func(t *tablewriter.Table) {
		t.Header("Name", "Kind", "Multiple", "Disabled", "Choices")
		_ = t.Append(c.Name, string(c.Kind), strconv.FormatBool(c.Multiple), strconv.FormatBool(c.Disabled), strconv.Itoa(c.Choices.Len()))
	})
}

// Notifications prints a user's notifications.
func (p Printer) Notifications(ns []store.Notification) error {
	return p.print(map[string][]store.Notification{"notifications": ns}, func(t *tablewriter.Table) {
		t.Header("Added", "Header", "Message", "Read")
		for _, n := range ns {
			_ = t.Append(n.DateAdded.Format("2006-01-02 15:04"), n.Header, truncate(n.Message, 60), strconv.FormatBool(n.IsRead))
		}
	})
}

// Export prints a scheduled export.
func (p Printer) Export(e *client.ScheduledExport) error {
	return p.print(e, func(t *tablewriter.Table) {
		t.Header("ID", "User", "Scheduled At", "Warning")
		user := ""
		if e.Export.User != nil {
			user = e.Export.User.Email
		}
		_ = t.Append(e.Export.ID, user, e.Export.ScheduledAt.Format("2006-01-02 15:04"), e.Warning)
	})
}

func (p Printer) print(data any, table func(*tablewriter.Table)) error {
	switch p.Format {
	case FormatJSON:
		encoder := json.NewEncoder(p.W)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	case FormatYAML:
		encoder := yaml.NewEncoder(p.W)
		defer encoder.Close()
		encoder.SetIndent(2)
		return encoder.Encode(data)
	case FormatTable, "":
		t := tablewriter.NewWriter(p.W)
		table(t)
		return t.Render()
	default:
		return fmt.Errorf("unsupported format: %s", p.Format)
	}
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}
