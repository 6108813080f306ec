// Package holding defines the fixed-width holdings record scraped from the
// filer holdings table and the rules that separate real positions from
// header, placeholder, and malformed rows.
package holding

import "fmt"

// Column offsets of the holdings table, in source order.
const (
	ColStock = iota
	ColHistory
	ColSector
	ColSharesHeld
	ColMarketValue
	ColPercentPortfolio
	ColPreviousPercentPortfolio
	ColRank
	ColChangeInShares
	ColPercentChange
	ColPercentOwnership
	ColQtrFirstOwned
	ColEstAvgPrice
	ColQtrEndPrice
	ColPrice1D
	ColPerfMTD
	ColPerfYTD
	ColSource
	ColSourceDate
	ColDateReported

	// ColumnCount is the number of cells a complete row carries.
	ColumnCount
)

// FieldNames are the output keys of a Record, indexed by column offset.
var FieldNames = [ColumnCount]string{
	ColStock:                    "stock",
	ColHistory:                  "history",
	ColSector:                   "sector",
	ColSharesHeld:               "sharesHeld",
	ColMarketValue:              "marketValue",
	ColPercentPortfolio:         "percentPortfolio",
	ColPreviousPercentPortfolio: "previousPercentPortfolio",
	ColRank:                     "rank",
	ColChangeInShares:           "changeInShares",
	ColPercentChange:            "percentChange",
	ColPercentOwnership:         "percentOwnership",
	ColQtrFirstOwned:            "qtrFirstOwned",
	ColEstAvgPrice:              "estAvgPrice",
	ColQtrEndPrice:              "qtrEndPrice",
	ColPrice1D:                  "price1D",
	ColPerfMTD:                  "perfMTD",
	ColPerfYTD:                  "perfYTD",
	ColSource:                   "source",
	ColSourceDate:               "sourceDate",
	ColDateReported:             "dateReported",
}

// Record is one row of the holdings table. All values are the raw display
// text of the cell; none are parsed or type-checked.
type Record struct {
	Stock                    string `json:"stock"`
	History                  string `json:"history"`
	Sector                   string `json:"sector"`
	SharesHeld               string `json:"sharesHeld"`
	MarketValue              string `json:"marketValue"`
	PercentPortfolio         string `json:"percentPortfolio"`
	PreviousPercentPortfolio string `json:"previousPercentPortfolio"`
	Rank                     string `json:"rank"`
	ChangeInShares           string `json:"changeInShares"`
	PercentChange            string `json:"percentChange"`
	PercentOwnership         string `json:"percentOwnership"`
	QtrFirstOwned            string `json:"qtrFirstOwned"`
	EstAvgPrice              string `json:"estAvgPrice"`
	QtrEndPrice              string `json:"qtrEndPrice"`
	Price1D                  string `json:"price1D"`
	PerfMTD                  string `json:"perfMTD"`
	PerfYTD                  string `json:"perfYTD"`
	Source                   string `json:"source"`
	SourceDate               string `json:"sourceDate"`
	DateReported             string `json:"dateReported"`
}

// NewRecord builds a Record from the cell texts of a row. Cells past the end
// of the slice are empty; cells beyond ColumnCount are ignored. When
// hoverName is non-empty the stock field becomes the composite ticker.
func NewRecord(cells []string, hoverName string) Record {
	var padded [ColumnCount]string
	copy(padded[:], cells)

	return Record{
		Stock:                    CompositeTicker(padded[ColStock], hoverName),
		History:                  padded[ColHistory],
		Sector:                   padded[ColSector],
		SharesHeld:               padded[ColSharesHeld],
		MarketValue:              padded[ColMarketValue],
		PercentPortfolio:         padded[ColPercentPortfolio],
		PreviousPercentPortfolio: padded[ColPreviousPercentPortfolio],
		Rank:                     padded[ColRank],
		ChangeInShares:           padded[ColChangeInShares],
		PercentChange:            padded[ColPercentChange],
		PercentOwnership:         padded[ColPercentOwnership],
		QtrFirstOwned:            padded[ColQtrFirstOwned],
		EstAvgPrice:              padded[ColEstAvgPrice],
		QtrEndPrice:              padded[ColQtrEndPrice],
		Price1D:                  padded[ColPrice1D],
		PerfMTD:                  padded[ColPerfMTD],
		PerfYTD:                  padded[ColPerfYTD],
		Source:                   padded[ColSource],
		SourceDate:               padded[ColSourceDate],
		DateReported:             padded[ColDateReported],
	}
}

// CompositeTicker joins a ticker with its hover-revealed full name as
// `TICKER "Name"`. An empty name leaves the ticker unchanged.
func CompositeTicker(ticker, name string) string {
	if name == "" {
		return ticker
	}
	return fmt.Sprintf(`%s "%s"`, ticker, name)
}

// Values returns the record's fields in column order.
func (r Record) Values() []string {
	return []string{
		r.Stock,
		r.History,
		r.Sector,
		r.SharesHeld,
		r.MarketValue,
		r.PercentPortfolio,
		r.PreviousPercentPortfolio,
		r.Rank,
		r.ChangeInShares,
		r.PercentChange,
		r.PercentOwnership,
		r.QtrFirstOwned,
		r.EstAvgPrice,
		r.QtrEndPrice,
		r.Price1D,
		r.PerfMTD,
		r.PerfYTD,
		r.Source,
		r.SourceDate,
		r.DateReported,
	}
}

// Header returns a copy of FieldNames as a slice, suitable for a file
// header row.
func Header() []string {
	header := make([]string, ColumnCount)
	copy(header, FieldNames[:])
	return header
}
