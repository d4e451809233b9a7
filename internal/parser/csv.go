package parser

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dgallion1/mdnotion/internal/doctree"
)

// csvBatchSize keeps each emitted table, header included, within the 100
// children the Notion API accepts per table.
const csvBatchSize = 99

// CSVParser handles CSV files. The first record is the header; data rows are
// split across as many tables as needed, each preceded by a heading naming
// its row range when there is more than one.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	doc := &doctree.Document{
		Title:  titleFromFilename(filename),
		Blocks: []doctree.Block{},
	}

	if len(records) == 0 || len(records[0]) == 0 {
		return doc, nil
	}

	header := plainRow(records[0])
	dataRows := records[1:]

	if len(dataRows) == 0 {
		doc.Blocks = append(doc.Blocks, doctree.NewTable(header, nil))
		return doc, nil
	}

	split := len(dataRows) > csvBatchSize
	for i := 0; i < len(dataRows); i += csvBatchSize {
		end := min(i+csvBatchSize, len(dataRows))

		if split {
			// 1-indexed, counting the header as row 1.
			label := fmt.Sprintf("Rows %d-%d", i+2, end+1)
			doc.Blocks = append(doc.Blocks, doctree.Heading(3, []doctree.TextRun{{Content: label}}))
		}

		rows := make([]doctree.Row, 0, end-i)
		for _, rec := range dataRows[i:end] {
			rows = append(rows, plainRow(rec))
		}
		doc.Blocks = append(doc.Blocks, doctree.NewTable(header, rows))
	}

	return doc, nil
}

func plainRow(fields []string) doctree.Row {
	row := make(doctree.Row, len(fields))
	for i, f := range fields {
		row[i] = doctree.Cell{{Content: f}}
	}
	return row
}
