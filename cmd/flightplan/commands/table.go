package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/flightplan-tool/flightplan-sub000/internal/adapter/storage/sqlite"
	"github.com/flightplan-tool/flightplan-sub000/internal/domain"
	"github.com/flightplan-tool/flightplan-sub000/internal/usecase"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

func renderSummaries(w io.Writer, results []usecase.JobResult) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Engine", "Searched", "Cached", "Failed", "Skipped", "Flights", "Awards", "Elapsed", "Status"})
	for _, r := range results {
		s := r.Summary
		status := "ok"
		switch {
		case r.Err != nil:
			status = r.Err.Error()
		case !s.OK():
			status = "incomplete"
		}
		t.AppendRow(table.Row{
			r.Engine, s.Searched, s.Cached, s.Failed, s.Skipped, s.Flights, s.Awards,
			s.Elapsed.Round(time.Second), status,
		})
	}
	t.Render()

	for _, r := range results {
		for _, out := range r.Summary.Outcomes {
			if out.Err != nil {
				fmt.Fprintf(w, "%s %s: %v\n", r.Engine, out.Query, out.Err)
			}
		}
	}
}

func renderAwards(w io.Writer, awards []*domain.Award) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Date", "Route", "Flight", "Depart", "Arrive", "Duration", "Stops", "Cabin", "Fare", "Seats", "Mileage", "Fees", "Notes"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Seats", Align: text.AlignRight},
		{Name: "Mileage", Align: text.AlignRight},
	})

	for _, a := range awards {
		f := a.Flight()
		segments := a.Segments()
		first, last := segments[0], segments[len(segments)-1]

		flights := make([]string, len(segments))
		for i, seg := range segments {
			flights[i] = seg.Flight()
		}
		arrive := last.Arrival()
		if f.LagDays() > 0 {
			arrive += fmt.Sprintf(" +%d", f.LagDays())
		}

		t.AppendRow(table.Row{
			f.Date(),
			f.FromCity() + "-" + f.ToCity(),
			strings.Join(flights, " "),
			first.Departure(),
			arrive,
			domain.FormatMinutes(f.Duration()),
			f.Stops(),
			domain.HighestCabin(a.Cabins()),
			a.Fare().Code,
			a.Quantity(),
			a.Mileage(),
			a.Fees(),
			awardNotes(a),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "", "", "", "", "", "", "Total", len(awards)})
	t.Render()
}

func awardNotes(a *domain.Award) string {
	var notes []string
	if a.Partner() {
		notes = append(notes, "partner")
	}
	if a.MixedCabin() {
		notes = append(notes, "mixed")
	}
	if a.Waitlisted() {
		notes = append(notes, "waitlisted")
	}
	if !a.Exact() {
		notes = append(notes, fmt.Sprintf("%d+ seats", a.Quantity()))
	}
	return strings.Join(notes, ", ")
}

func renderRequests(w io.Writer, rows []sqlite.RequestRow) {
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Engine", "Route", "Depart", "Return", "Cabin", "Passengers", "Partners", "Assets", "Created"})
	for _, r := range rows {
		ret := r.ReturnDate
		if ret == "" {
			ret = "one-way"
		}
		t.AppendRow(table.Row{
			r.ID, r.Engine, r.FromCity + "-" + r.ToCity, r.DepartDate, ret,
			r.Cabin, r.Quantity, r.Partners,
			len(r.Assets.HTML) + len(r.Assets.JSON) + len(r.Assets.Screenshot),
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	t.Render()
}

// parseOutcome is the result of parsing one stored request again.
type parseOutcome struct {
	row    sqlite.RequestRow
	awards int
	err    error
}

func renderParse(w io.Writer, outcomes []parseOutcome) {
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Engine", "Route", "Depart", "Awards", "Status"})
	for _, o := range outcomes {
		status := "ok"
		if o.err != nil {
			status = fmt.Sprintf("%s: %v", domain.Classify(o.err), o.err)
		}
		t.AppendRow(table.Row{o.row.ID, o.row.Engine, o.row.FromCity + "-" + o.row.ToCity, o.row.DepartDate, o.awards, status})
	}
	t.Render()
}
