package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dgallion1/texgest/internal/output"
)

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [file|-]",
		Short: "Show the preamble, labels, media and tree of a document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.load(cmd, args)
			if err != nil {
				return err
			}
			if a.format == output.FormatText && a.flags.query == "" {
				return a.print(cmd, doc.Outline())
			}
			return a.print(cmd, doc.Summarize())
		},
	}
}

func (a *app) parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse [file|-]",
		Short: "Print the full document tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.load(cmd, args)
			if err != nil {
				return err
			}
			return a.print(cmd, doc.Outline())
		},
	}
}

func (a *app) latexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "latex [file|-]",
		Short: "Rebuild LaTeX source from the document tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.load(cmd, args)
			if err != nil {
				return err
			}
			if a.format == output.FormatText {
				return a.print(cmd, doc.Latex())
			}
			return a.print(cmd, map[string]string{"latex": doc.Latex()})
		},
	}
}

func (a *app) xrefsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "xrefs [file|-]",
		Short: "List labels and the numbered nodes they refer to",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.load(cmd, args)
			if err != nil {
				return err
			}
			xrefs := doc.XrefList()
			if a.format != output.FormatText || a.flags.query != "" {
				return a.print(cmd, xrefs)
			}
			table := output.Table{Headers: []string{"LABEL", "SPECIES", "NUMBER", "TITLE"}}
			for _, x := range xrefs {
				table.Rows = append(table.Rows, []string{x.Label, x.Species, strconv.Itoa(x.Number), x.Title})
			}
			return output.NewPrinter(cmd.OutOrStdout(), output.FormatTable).Print(cmd.Context(), table)
		},
	}
}

func (a *app) markupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "markup [file|-]",
		Short: "Dump the document tree as elements",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.load(cmd, args)
			if err != nil {
				return err
			}
			out, err := doc.Markup()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write([]byte(out + "\n"))
			return err
		},
	}
}
