package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"wordhash/internal/journal"
)

func newReplayCommand(ctx *commandContext) *cobra.Command {
	var from int64

	cmd := &cobra.Command{
		Use:   "replay <journal-dir>",
		Short: "Print hashed documents recorded in a journal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, _, err := journal.Open(args[0])
			if err != nil {
				return err
			}
			defer j.Close()

			var records []journal.Record
			var rows [][]string
			next, err := j.Scan(from, func(offset int64, record journal.Record) error {
				records = append(records, record)
				rows = append(rows, []string{
					strconv.FormatInt(offset, 10),
					record.ID,
					record.Language,
					strconv.FormatBool(record.Stemming),
					strconv.Itoa(len(record.Tokens)),
					strconv.Itoa(record.Tokens.Total()),
				})
				return nil
			})
			if err != nil {
				return err
			}

			if !ctx.wantsTable(cmd) {
				return writeJSON(cmd, map[string]any{"records": records, "nextOffset": next})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Offset", "ID", "Language", "Stemming", "Unique", "Total"}, rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight}))
			fmt.Fprintf(cmd.OutOrStdout(), "next offset: %d\n", next)
			return nil
		},
	}

	cmd.Flags().Int64Var(&from, "from", 0, "Byte offset to start replaying from")
	return cmd
}
