package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/microflo/internal/component"
)

// ComponentInfo describes one registered component type.
type ComponentInfo struct {
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	Inports     []component.PortSpec `json:"inports"`
	Outports    []component.PortSpec `json:"outports"`
	Tick        bool                 `json:"tick"`
}

// ComponentList is the output of the components command.
type ComponentList struct {
	Components []ComponentInfo `json:"components"`
}

func (l ComponentList) String() string {
	var b strings.Builder
	for i, c := range l.Components {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s", c.Name)
		if c.Description != "" {
			fmt.Fprintf(&b, " - %s", c.Description)
		}
		b.WriteByte('\n')
		fmt.Fprintf(&b, "  in:  %s\n", formatPorts(c.Inports))
		fmt.Fprintf(&b, "  out: %s", formatPorts(c.Outports))
	}
	return b.String()
}

func formatPorts(ports []component.PortSpec) string {
	if len(ports) == 0 {
		return "-"
	}
	parts := make([]string, len(ports))
	for i, p := range ports {
		parts[i] = fmt.Sprintf("%s(%s)", p.Name, p.Type)
	}
	return strings.Join(parts, " ")
}

// NewComponentsCommand creates the components command.
func NewComponentsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "components",
		Short: "List built-in component types",
		Long: `List the component types graphs can instantiate, with their ports
and port types.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return formatter.Success(listComponents(component.NewDefaultRegistry()))
		},
	}
}

func listComponents(reg *component.Registry) ComponentList {
	list := ComponentList{Components: []ComponentInfo{}}
	for _, name := range reg.Names() {
		def, err := reg.Lookup(name)
		if err != nil {
			continue
		}
		list.Components = append(list.Components, ComponentInfo{
			Name:        def.Name,
			Description: def.Description,
			Inports:     def.Inports,
			Outports:    def.Outports,
			Tick:        def.HasTick(),
		})
	}
	return list
}
