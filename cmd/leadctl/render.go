package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/nimasrn/lead-desk/internal/actions"
	"github.com/nimasrn/lead-desk/internal/filter"
	"github.com/nimasrn/lead-desk/internal/model"
)

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}

func stages(l model.Lead) string {
	var out []string
	for _, s := range []struct {
		name string
		text *string
	}{
		{"BOM", l.BomText},
		{"BIT", l.BitText},
		{"PT", l.PtText},
		{"WG", l.WgText},
	} {
		if s.text != nil {
			out = append(out, s.name)
		}
	}
	if len(out) == 0 {
		return "-"
	}
	return strings.Join(out, ",")
}

func renderLeads(out io.Writer, leads []model.Lead) {
	if len(leads) == 0 {
		fmt.Fprintln(out, "no leads")
		return
	}
	writer := tabwriter.NewWriter(out, 2, 0, 3, ' ', 0)
	fmt.Fprintf(writer, "ID\tNAME\tPHONE\tATTENTION\tOPTED OUT\tSTAGES\tCREATED\n")
	for _, l := range leads {
		fmt.Fprintf(writer, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			l.ID, l.LeadName, l.LeadPhone, yesNo(l.NeedsAttention), yesNo(l.OptedOut), stages(l), l.CreatedAt)
	}
	writer.Flush()
}

func renderActions(out io.Writer, table []actions.Action) {
	writer := tabwriter.NewWriter(out, 2, 0, 3, ' ', 0)
	fmt.Fprintf(writer, "ACTION\tAVAILABLE\n")
	for _, a := range table {
		fmt.Fprintf(writer, "%s\t%s\n", a.Name, yesNo(a.Implemented()))
	}
	writer.Flush()
}

// messageTime formats a timestamp for display. Provisional messages have
// none yet.
func messageTime(ts *string) string {
	if ts == nil {
		return "Sending..."
	}
	t, ok := filter.ParseDate(*ts)
	if !ok {
		return *ts
	}
	return t.Format("Jan 02, 3:04 PM")
}

func renderMessages(out io.Writer, msgs []model.ChatMessage) {
	if len(msgs) == 0 {
		fmt.Fprintln(out, "no messages")
		return
	}
	writer := tabwriter.NewWriter(out, 2, 0, 3, ' ', 0)
	fmt.Fprintf(writer, "TIME\tDIRECTION\tMESSAGE\n")
	for _, m := range msgs {
		text := m.MessageText
		if m.MediaID != nil {
			text += " [media]"
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\n", messageTime(m.Timestamp), m.Direction, text)
	}
	writer.Flush()
}
