package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"wordhash/internal/hasher"
)

type hashOutput struct {
	Source   string              `json:"source"`
	Language string              `json:"language"`
	Stemming bool                `json:"stemming"`
	Unique   int                 `json:"unique"`
	Total    int                 `json:"total"`
	Tokens   hasher.FrequencyMap `json:"tokens"`
}

func newHashCommand(ctx *commandContext) *cobra.Command {
	var language string
	var noStem bool
	var clean bool
	var top int

	cmd := &cobra.Command{
		Use:   "hash [file|-]...",
		Short: "Print the token frequency map of files or stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			components, err := ctx.ensureApp(cmd)
			if err != nil {
				return err
			}

			defaults := components.Hasher.Defaults()
			if language == "" {
				language = defaults.Language
			}
			stemming := defaults.Stemming && !noStem

			if len(args) == 0 {
				args = []string{"-"}
			}

			outputs := make([]hashOutput, 0, len(args))
			for _, name := range args {
				text, err := readInput(cmd, name)
				if err != nil {
					return err
				}

				var tokens hasher.FrequencyMap
				if clean {
					tokens = components.Hasher.CleanWordHash(text, language, stemming)
				} else {
					tokens = components.Hasher.WordHash(text, language, stemming)
				}
				outputs = append(outputs, hashOutput{
					Source:   name,
					Language: language,
					Stemming: stemming,
					Unique:   len(tokens),
					Total:    tokens.Total(),
					Tokens:   tokens,
				})
			}

			if !ctx.wantsTable(cmd) {
				if len(outputs) == 1 {
					return writeJSON(cmd, outputs[0])
				}
				return writeJSON(cmd, outputs)
			}

			for _, out := range outputs {
				entries := out.Tokens.Sorted()
				if top > 0 && len(entries) > top {
					entries = entries[:top]
				}
				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					rows = append(rows, []string{entry.Token, strconv.Itoa(entry.Count)})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s, stemming=%t): %d unique, %d total\n", out.Source, out.Language, out.Stemming, out.Unique, out.Total)
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Token", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&language, "language", "l", "", "Language code selecting the stopword and acronym lists")
	cmd.Flags().BoolVar(&noStem, "no-stem", false, "Disable stemming")
	cmd.Flags().BoolVar(&clean, "clean", false, "Omit symbol tokens")
	cmd.Flags().IntVar(&top, "top", 0, "Only show the N most frequent tokens in table output")

	return cmd
}

func readInput(cmd *cobra.Command, name string) (string, error) {
	if name == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return string(data), nil
}
