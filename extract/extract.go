// Package extract turns the rendered holdings table into records.
package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/holdings/holding"
)

// DefaultRowSelector selects the body rows of the data table relative to the
// captured table container.
const DefaultRowSelector = "table tbody tr"

// hoverSelector finds the link in the first cell whose title carries the
// issuer's full name.
const hoverSelector = "a[title]"

// ParseHTML parses the outer HTML of the table container.
func ParseHTML(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse table HTML: %w", err)
	}
	return doc, nil
}

// Rows returns one record per row matched by rowSelector, in document order.
// Rows with fewer cells than the schema produce empty trailing fields.
func Rows(doc *goquery.Document, rowSelector string) []holding.Record {
	if rowSelector == "" {
		rowSelector = DefaultRowSelector
	}

	rows := doc.Find(rowSelector)
	records := make([]holding.Record, 0, rows.Length())

	rows.Each(func(_ int, row *goquery.Selection) {
		columns := row.ChildrenFiltered("td")

		cells := make([]string, 0, columns.Length())
		columns.Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, cellText(cell))
		})

		records = append(records, holding.NewRecord(cells, hoverName(columns.First())))
	})

	return records
}

// RowsFromHTML parses html and extracts its rows.
func RowsFromHTML(html, rowSelector string) ([]holding.Record, error) {
	doc, err := ParseHTML(html)
	if err != nil {
		return nil, err
	}
	return Rows(doc, rowSelector), nil
}

// cellText returns the cell's visible text with whitespace normalized: runs
// of spaces and newlines collapse to a single space.
func cellText(cell *goquery.Selection) string {
	return strings.Join(strings.Fields(cell.Text()), " ")
}

// hoverName returns the title of the first titled link inside cell, or the
// empty string.
func hoverName(cell *goquery.Selection) string {
	if cell.Length() == 0 {
		return ""
	}
	title, _ := cell.Find(hoverSelector).First().Attr("title")
	return title
}
