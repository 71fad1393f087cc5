package notifier

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/tonkeeper/tongo/ton"

	"github.com/suspectuso/ton-staking-console/internal/action"
	"github.com/suspectuso/ton-staking-console/internal/staking"
	"github.com/suspectuso/ton-staking-console/internal/storage"
	"github.com/suspectuso/ton-staking-console/internal/tonapi"
)

// Sender delivers a formatted HTML report
type Sender interface {
	SendNotification(ctx context.Context, text string) error
}

// Journal persists submitted actions
type Journal interface {
	RecordAction(rec *storage.ActionRecord) error
}

// Notifier reports finished actions to the journal and the report chat.
// Both sinks are optional.
type Notifier struct {
	journal Journal
	sender  Sender
	testnet bool
	log     *slog.Logger
}

// New creates a new Notifier
func New(journal Journal, sender Sender, testnet bool, log *slog.Logger) *Notifier {
	return &Notifier{
		journal: journal,
		sender:  sender,
		testnet: testnet,
		log:     log,
	}
}

// Report records out when a message was sent and forwards it to the chat.
// Aborted and read-only actions are not reported.
func (n *Notifier) Report(ctx context.Context, out action.Outcome) {
	if !out.Submitted {
		return
	}

	if n.journal != nil {
		rec := Record(out)
		if err := n.journal.RecordAction(rec); err != nil {
			n.log.Error("record action", "action", out.Action, "error", err)
		} else {
			n.log.Debug("action recorded", "id", rec.ID, "status", rec.Status)
		}
	}

	if n.sender != nil {
		if err := n.sender.SendNotification(ctx, FormatOutcome(out, n.testnet)); err != nil {
			n.log.Error("send outcome notification", "action", out.Action, "error", err)
		}
	}
}

// Record maps an outcome to a journal entry
func Record(out action.Outcome) *storage.ActionRecord {
	rec := &storage.ActionRecord{
		Contract:   out.Contract.String(),
		Action:     out.Action,
		BodyHash:   out.BodyHash,
		ValueNano:  out.Value,
		BaselineLt: out.Baseline,
		Status:     out.Status.String(),
		Attempts:   out.Attempts,
		Message:    out.Message,
	}
	if out.Kind != 0 {
		rec.Kind = out.Kind.String()
		rec.OpTag = out.Kind.Tag()
	}
	return rec
}

// FormatOutcome renders an outcome for Telegram
func FormatOutcome(out action.Outcome, testnet bool) string {
	lines := []string{
		fmt.Sprintf("%s <b>%s</b> %s", statusEmoji(out.Status), html.EscapeString(out.Action), statusWord(out.Status)),
		"",
		"Contract: " + AccountLink(out.Contract, testnet),
	}
	if out.Value > 0 {
		lines = append(lines, fmt.Sprintf("Value: %s TON", staking.FormatNano(out.Value)))
	}
	if out.Message != "" {
		lines = append(lines, "", "<i>"+html.EscapeString(out.Message)+"</i>")
	}
	lines = append(lines, "", fmt.Sprintf("Baseline lt <code>%d</code>, %d polls", out.Baseline, out.Attempts))
	if out.BodyHash != "" {
		lines = append(lines, fmt.Sprintf("Body <code>%s</code>", out.BodyHash))
	}
	return strings.Join(lines, "\n")
}

// FormatInfo renders a contract snapshot for Telegram
func FormatInfo(addr ton.AccountID, snap *staking.Snapshot, testnet bool) string {
	lines := []string{
		"<b>📊 Staking contract</b> " + AccountLink(addr, testnet),
		"",
		"<pre>" + html.EscapeString(strings.Join(action.InfoLines(snap, testnet), "\n")) + "</pre>",
	}
	return strings.Join(lines, "\n")
}

// FormatHistory renders recent journal entries, newest first
func FormatHistory(recs []storage.ActionRecord) string {
	if len(recs) == 0 {
		return "📭 No actions recorded yet"
	}
	lines := []string{"<b>🗂 Recent actions</b>", ""}
	for _, r := range recs {
		lines = append(lines, fmt.Sprintf("%s %s <b>%s</b> %s",
			statusEmojiText(r.Status),
			r.CreatedAt.UTC().Format("2006-01-02 15:04"),
			html.EscapeString(r.Action),
			html.EscapeString(r.Status),
		))
	}
	return strings.Join(lines, "\n")
}

// AccountLink is an HTML link to the tonviewer page of id
func AccountLink(id ton.AccountID, testnet bool) string {
	human := id.ToHuman(true, testnet)
	host := "tonviewer.com"
	if testnet {
		host = "testnet.tonviewer.com"
	}
	return fmt.Sprintf("<a href='https://%s/%s'>%s</a>", host, human, tonapi.ShortAddr(id, testnet, 4))
}

func statusEmoji(s action.Status) string {
	return statusEmojiText(s.String())
}

func statusEmojiText(status string) string {
	switch status {
	case action.StatusSucceeded.String():
		return "✅"
	case action.StatusTimedOut.String():
		return "⏳"
	case action.StatusMismatch.String():
		return "⚠️"
	case action.StatusAborted.String():
		return "✖️"
	default:
		return "🟥"
	}
}

func statusWord(s action.Status) string {
	switch s {
	case action.StatusSucceeded:
		return "confirmed"
	case action.StatusTimedOut:
		return "not confirmed in time"
	case action.StatusMismatch:
		return "landed without the expected effect"
	case action.StatusAborted:
		return "aborted"
	default:
		return "failed"
	}
}
