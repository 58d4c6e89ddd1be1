package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/swmmkit/internal/cli/output"
	"github.com/leapstack-labs/swmmkit/pkg/inp"
	"github.com/leapstack-labs/swmmkit/pkg/rpt"
	"github.com/leapstack-labs/swmmkit/pkg/table"
	"github.com/spf13/cobra"
)

// NewSectionsCommand creates the sections command.
func NewSectionsCommand() *cobra.Command {
	var layer string
	cmd := &cobra.Command{
		Use:   "sections",
		Short: "List supported input sections, table kinds and report topics",
		Example: `  # Everything swmmkit understands
  swmmkit sections

  # Report topics relevant to conduits
  swmmkit sections --layer conduits`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSections(cmd, layer)
		},
	}
	cmd.Flags().StringVar(&layer, "layer", "", "Only list report topics for this object layer")
	return cmd
}

type sectionsOutput struct {
	Sections []string        `json:"sections,omitempty"`
	Kinds    []string        `json:"kinds,omitempty"`
	Topics   []output.Record `json:"topics"`
}

func runSections(cmd *cobra.Command, layer string) error {
	r := NewCommandContext(cmd).Renderer

	names := rpt.Topics()
	if layer != "" {
		names = rpt.TopicsFor(layer)
		if len(names) == 0 {
			return fmt.Errorf("no report topics for layer %q", layer)
		}
	}
	topics := table.New("topics", "Topic", "Title")
	for _, name := range names {
		t, err := rpt.LookupTopic(name)
		if err != nil {
			return err
		}
		topics.Append(table.Row{"Topic": table.Text(t.Name), "Title": table.Text(t.Title)})
	}

	var sections, kinds []string
	if layer == "" {
		sections = inp.Sections()
		for _, k := range inp.Kinds {
			kinds = append(kinds, string(k))
		}
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(sectionsOutput{Sections: sections, Kinds: kinds, Topics: output.TableRecords(topics)})
	case output.ModeCSV:
		return r.Table(topics)
	}

	if layer == "" {
		r.Header(1, "Input sections")
		r.Println(strings.Join(sections, ", "))
		r.Println()
		r.Header(1, "Table kinds")
		r.Println(strings.Join(kinds, ", "))
		r.Println()
	}
	r.Header(1, "Report topics")
	return r.Table(topics)
}
