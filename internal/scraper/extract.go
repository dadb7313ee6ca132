package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// TableKind names one of the logical tables of the station report.
type TableKind string

const (
	TableHourly  TableKind = "hourly"
	TableCurrent TableKind = "current"
	TableDaily   TableKind = "daily"
)

// maxDailyRows bounds the fallback classification of a daily table.
const maxDailyRows = 35

// RowSet is the raw content of one extracted table.
type RowSet struct {
	Header []string
	Rows   [][]string
}

// Tables maps each located table to its rows. Missing kinds are absent.
type Tables map[TableKind]RowSet

// headingKeywords maps folded heading phrases to the table they introduce.
var headingKeywords = []struct {
	word string
	kind TableKind
}{
	{"horarios", TableHourly},
	{"actuales", TableCurrent},
	{"diarios", TableDaily},
}

// headerTokens are first-cell values that mark a header row.
var headerTokens = map[string]bool{
	"fecha":        true,
	"hora":         true,
	"fecha/hora":   true,
	"fecha y hora": true,
	"fecha - hora": true,
	"dia":          true,
}

// headingTags are the elements whose own text may carry a section heading.
var headingTags = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"caption": true, "th": true, "strong": true, "b": true, "p": true, "span": true,
	"div": true, "td": true, "label": true, "legend": true, "font": true,
	"center": true, "a": true, "em": true,
}

// Extract locates the hourly, current and daily tables in a station report.
// It never fails: tables that cannot be found are simply absent from the result.
func Extract(doc string) Tables {
	root, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return Tables{}
	}

	tables := Tables{}
	claimed := map[*html.Node]bool{}
	owner := map[TableKind]*html.Node{}

	for _, c := range headingCandidates(root) {
		rs := extractRows(c.table)
		if len(rs.Rows) == 0 {
			continue
		}
		if prev, ok := tables[c.kind]; ok && len(rs.Rows) <= len(prev.Rows) {
			continue
		}
		// a replaced table goes back to the fallback pass
		delete(claimed, owner[c.kind])
		tables[c.kind] = rs
		owner[c.kind] = c.table.Get(0)
		claimed[owner[c.kind]] = true
	}

	if _, ok := tables[TableHourly]; !ok {
		classifyUnclaimed(root, tables, claimed)
	}

	return tables
}

type candidate struct {
	kind  TableKind
	table *goquery.Selection
}

// headingCandidates pairs every recognised heading with the table that follows it.
func headingCandidates(root *goquery.Document) []candidate {
	var out []candidate
	root.Find("*").Each(func(_ int, s *goquery.Selection) {
		name := goquery.NodeName(s)
		if !headingTags[name] {
			return
		}
		kind, ok := headingKind(ownText(s))
		if !ok {
			return
		}
		if name == "caption" || name == "th" {
			if tbl := s.Closest("table"); tbl.Length() > 0 {
				out = append(out, candidate{kind: kind, table: tbl})
				return
			}
		}
		if tbl, ok := findTableFollowing(root, s); ok {
			out = append(out, candidate{kind: kind, table: tbl})
		}
	})
	return out
}

// findTableFollowing returns the nearest table after heading in document order.
func findTableFollowing(root *goquery.Document, heading *goquery.Selection) (*goquery.Selection, bool) {
	target := heading.Get(0)
	seen := false
	var found *goquery.Selection
	root.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.Get(0) == target {
			seen = true
			return true
		}
		if seen && goquery.NodeName(s) == "table" {
			found = s
			return false
		}
		return true
	})
	return found, found != nil
}

func headingKind(text string) (TableKind, bool) {
	folded := fold(text)
	for _, k := range headingKeywords {
		if strings.Contains(folded, k.word) {
			return k.kind, true
		}
	}
	return "", false
}

// ownText returns the text of s's direct text children only.
func ownText(s *goquery.Selection) string {
	n := s.Get(0)
	if n == nil {
		return ""
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// extractRows collects the rows of tbl that have at least two cells, skipping
// header rows. Rows of nested tables are ignored.
func extractRows(tbl *goquery.Selection) RowSet {
	var rs RowSet
	tbl.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		if !tr.Closest("table").IsSelection(tbl) {
			return
		}
		var cells []string
		tr.ChildrenFiltered("td, th").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, strings.Join(strings.Fields(td.Text()), " "))
		})
		if len(cells) < 2 {
			return
		}
		if isHeaderCell(cells[0]) {
			if rs.Header == nil {
				rs.Header = cells
			}
			return
		}
		rs.Rows = append(rs.Rows, cells)
	})
	return rs
}

// classifyUnclaimed is the fallback pass: every table not paired with a heading
// is classified from the keywords of its header row.
func classifyUnclaimed(root *goquery.Document, tables Tables, claimed map[*html.Node]bool) {
	root.Find("table").Each(func(_ int, tbl *goquery.Selection) {
		if claimed[tbl.Get(0)] {
			return
		}
		rs := extractRows(tbl)
		if len(rs.Rows) == 0 {
			return
		}
		kind, ok := classifyHeader(headerOf(rs), len(rs.Rows))
		if !ok {
			return
		}
		if _, taken := tables[kind]; taken {
			return
		}
		tables[kind] = rs
		claimed[tbl.Get(0)] = true
	})
}

func headerOf(rs RowSet) []string {
	if rs.Header != nil {
		return rs.Header
	}
	return rs.Rows[0]
}

func isHeaderCell(cell string) bool {
	f := fold(cell)
	return headerTokens[f] || strings.HasPrefix(f, "fecha")
}

func classifyHeader(header []string, rows int) (TableKind, bool) {
	h := fold(strings.Join(header, " | "))
	rain := containsAny(h, "lluvia", "precip")
	temp := containsAny(h, "temp")
	hum := containsAny(h, "humedad")
	date := containsAny(h, "fecha", "dia", "hora")

	switch {
	case rain && (temp || hum):
		return TableHourly, true
	case rain && date && rows <= maxDailyRows:
		return TableDaily, true
	}
	return "", false
}
