package emit

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/xspread/pairdisco/internal/model"
)

// symbolsText renders symbols.txt: one tab-separated line per record, id
// ascending.
func symbolsText(records []model.SymbolRecord) []byte {
	var buf bytes.Buffer
	buf.WriteString("id\tcanonical\tsources\n")
	for _, r := range records {
		fmt.Fprintf(&buf, "%d\t%s\t%s\n", r.ID, r.Canonical, sourceList(r.PopulatedSources()))
	}
	return buf.Bytes()
}

func sourceList(sources []model.SourceID) string {
	var buf bytes.Buffer
	for i, s := range sources {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(s.String())
	}
	return buf.String()
}

// directionsText renders directions.txt.
func directionsText(records []model.DirectionRecord) []byte {
	var buf bytes.Buffer
	buf.WriteString("id\tname\tspot_source\tfutures_source\tnum_symbols\n")
	for _, d := range records {
		fmt.Fprintf(&buf, "%d\t%s\t%s\t%s\t%d\n", d.ID, d.Name, d.SpotSource, d.FuturesSource, len(d.Symbols))
	}
	return buf.Bytes()
}

// validationReportText renders validation_report.txt: per-source totals
// plus a histogram of invalidity reasons, the supplemented feature that
// lets an operator see at a glance why a source's yield dropped without
// grepping raw invalid-entry lists.
func validationReportText(results []*model.ValidationResult) []byte {
	var buf bytes.Buffer
	buf.WriteString("source\tattempted\tvalid\tinvalid\treconnects\tbatches\n")
	for _, r := range results {
		fmt.Fprintf(&buf, "%s\t%d\t%d\t%d\t%d\t%d\n", r.Source, r.Attempted, len(r.Valid), len(r.Invalid), r.Reconnects, r.BatchCount)
	}

	buf.WriteString("\nsource\treason\tcount\n")
	for _, r := range results {
		counts := r.ReasonCounts()
		reasons := make([]model.InvalidReason, 0, len(counts))
		for reason := range counts {
			reasons = append(reasons, reason)
		}
		sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })
		for _, reason := range reasons {
			fmt.Fprintf(&buf, "%s\t%s\t%d\n", r.Source, reason, counts[reason])
		}
	}
	return buf.Bytes()
}
