package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/suspectuso/ton-staking-console/internal/staking"
	"github.com/suspectuso/ton-staking-console/internal/storage"
)

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}
	if cfg.DBPath == "" {
		return errors.New("journal is disabled, set DB_PATH or --db")
	}

	store, err := storage.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	if historyID != "" {
		rec, err := store.GetAction(historyID)
		if err != nil {
			return fmt.Errorf("get action %s: %w", historyID, err)
		}
		return printAction(out, rec)
	}

	contract := ""
	configured, err := configuredContract(cfg)
	if err != nil {
		return err
	}
	if configured != nil {
		contract = configured.String()
	}

	recs, err := store.ListActions(contract, historyLimit)
	if err != nil {
		return err
	}
	counts, err := store.CountByStatus(contract)
	if err != nil {
		return err
	}
	return printHistory(out, recs, counts)
}

func printHistory(w io.Writer, recs []storage.ActionRecord, counts []storage.StatusCount) error {
	if len(recs) == 0 {
		fmt.Fprintln(w, "No actions recorded")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tID\tACTION\tSTATUS\tVALUE\tPOLLS\tMESSAGE")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			r.ID,
			r.Action,
			r.Status,
			staking.FormatNano(r.ValueNano),
			r.Attempts,
			r.Message,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	total := 0
	parts := make([]string, 0, len(counts))
	for _, c := range counts {
		total += c.Count
		parts = append(parts, fmt.Sprintf("%s %d", c.Status, c.Count))
	}
	fmt.Fprintf(w, "\n%d recorded: %s\n", total, strings.Join(parts, ", "))
	return nil
}

func printAction(w io.Writer, rec *storage.ActionRecord) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fields := [][2]string{
		{"ID", rec.ID},
		{"Time", rec.CreatedAt.Local().Format("2006-01-02 15:04:05")},
		{"Contract", rec.Contract},
		{"Action", rec.Action},
		{"Operation", fmt.Sprintf("%s (0x%08x)", rec.Kind, rec.OpTag)},
		{"Status", rec.Status},
		{"Value", staking.FormatNano(rec.ValueNano) + " TON"},
		{"Baseline lt", fmt.Sprint(rec.BaselineLt)},
		{"Polls", fmt.Sprint(rec.Attempts)},
		{"Body hash", rec.BodyHash},
		{"Message", rec.Message},
	}
	for _, f := range fields {
		fmt.Fprintf(tw, "%s:\t%s\n", f[0], f[1])
	}
	return tw.Flush()
}
