package dispatch

import (
	"fmt"
	"strings"

	"github.com/ppiankov/chandigest/internal/store"
)

// SourceStatus is the fresh-record count of one source.
type SourceStatus struct {
	ID        string
	Title     string
	Kind      string
	Monitored bool
	Fresh     int
}

// Status summarizes what a digest over the given window would see.
type Status struct {
	Hours     int
	Known     int
	Monitored int
	Active    int // monitored sources with fresh records
	Fresh     int // fresh records across monitored sources
	Sources   []SourceStatus
}

// StatusOf reports monitoring and freshness for every known source.
func StatusOf(st *store.Store, hours int) Status {
	fresh := make(map[string]int)
	for _, b := range st.Window(hours).Batches {
		fresh[b.Source.ID] = len(b.Records)
	}

	s := Status{Hours: hours}
	for _, src := range st.Sources() {
		on := st.IsMonitored(src.ID)
		s.Known++
		if on {
			s.Monitored++
		}
		if n := fresh[src.ID]; n > 0 {
			s.Active++
			s.Fresh += n
		}
		s.Sources = append(s.Sources, SourceStatus{
			ID:        src.ID,
			Title:     src.Title,
			Kind:      src.Kind,
			Monitored: on,
			Fresh:     fresh[src.ID],
		})
	}
	return s
}

// String renders the status as a short plain-text report.
func (s Status) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Monitoring %d of %d sources\n", s.Monitored, s.Known)
	window := "all time"
	if s.Hours > 0 {
		window = fmt.Sprintf("last %dh", s.Hours)
	}
	fmt.Fprintf(&b, "Fresh (%s): %d messages from %d sources\n", window, s.Fresh, s.Active)
	for _, src := range s.Sources {
		mark := "-"
		if src.Monitored {
			mark = "+"
		}
		fmt.Fprintf(&b, "  %s %-24s %-8s %d\n", mark, src.Title, src.Kind, src.Fresh)
	}
	return b.String()
}
