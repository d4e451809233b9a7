package chunker

import "github.com/dgallion1/mdnotion/internal/doctree"

// Rough per-object overheads of the Notion JSON encoding, in bytes.
const (
	blockOverhead = 64  // {"object":"block","type":"…","…":{…}}
	runOverhead   = 160 // text wrapper plus annotations
	rowOverhead   = 56  // {"object":"block","type":"table_row","table_row":{"cells":[]}}
)

// EstimateBytes approximates the encoded request size of one block.
// It only needs to be in the right ballpark to keep chunks under a byte cap.
func EstimateBytes(b doctree.Block) int {
	n := blockOverhead
	switch b.Kind {
	case doctree.KindDivider:
	case doctree.KindCode:
		n += len(b.Language) + runOverhead + len(b.Code)
	case doctree.KindTable:
		if b.Table != nil {
			for _, row := range b.Table.Rows {
				n += rowOverhead
				for _, cell := range row {
					n += runsBytes(cell)
				}
			}
		}
	default:
		n += runsBytes(b.Runs)
	}
	return n
}

// EstimateTotal sums EstimateBytes over blocks.
func EstimateTotal(blocks []doctree.Block) int {
	total := 0
	for _, b := range blocks {
		total += EstimateBytes(b)
	}
	return total
}

func runsBytes(runs []doctree.TextRun) int {
	n := 0
	for _, r := range runs {
		n += runOverhead + len(r.Content)
	}
	return n
}
