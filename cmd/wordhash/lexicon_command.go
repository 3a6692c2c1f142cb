package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"wordhash/internal/lexicon"
)

func newLexiconCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "lexicon <stopwords|acronyms> <language>",
		Short: "Show the resolved word list for a language",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := lexicon.ParseKind(args[0])
			if err != nil {
				return err
			}
			components, err := ctx.ensureApp(cmd)
			if err != nil {
				return err
			}

			language := args[1]
			set := components.Lexicon.Lookup(kind, language)
			source := components.Lexicon.SourceOf(kind, language)

			if !ctx.wantsTable(cmd) {
				return writeJSON(cmd, map[string]any{
					"kind":     kind,
					"language": language,
					"source":   source,
					"count":    set.Len(),
					"entries":  set.Words(),
				})
			}

			if source == "" {
				source = "none"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s/%s from %s: %d entries\n", kind, language, source, set.Len())
			if set.Len() > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(set.Words(), " "))
			}
			return nil
		},
	}
}
