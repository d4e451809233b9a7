package chunker

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/dgallion1/mdnotion/internal/doctree"
)

func paragraphs(n int) []doctree.Block {
	blocks := make([]doctree.Block, n)
	for i := range blocks {
		blocks[i] = doctree.Paragraph([]doctree.TextRun{{Content: fmt.Sprintf("p%d", i)}})
	}
	return blocks
}

func TestChunk_250BlocksSplitsIntoThree(t *testing.T) {
	chunks := Chunk(paragraphs(250), 100)

	if got, want := Sizes(chunks), []int{100, 100, 50}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected sizes %v, got %v", want, got)
	}
	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk %d: expected index %d, got %d", i, i, c.Index)
		}
	}
}

func TestChunk_PreservesOrderWithoutLoss(t *testing.T) {
	blocks := paragraphs(37)
	chunks := Chunk(blocks, 10)

	var flat []doctree.Block
	for _, c := range chunks {
		flat = append(flat, c.Blocks...)
	}
	if !reflect.DeepEqual(flat, blocks) {
		t.Fatal("concatenated chunks do not reproduce the input")
	}
}

func TestChunk_Boundaries(t *testing.T) {
	tests := []struct {
		n, max int
		want   []int
	}{
		{0, 100, []int{}},
		{1, 100, []int{1}},
		{100, 100, []int{100}},
		{101, 100, []int{100, 1}},
		{5, 1, []int{1, 1, 1, 1, 1}},
		{150, 0, []int{100, 50}},
		{150, -3, []int{100, 50}},
	}
	for _, tt := range tests {
		got := Sizes(Chunk(paragraphs(tt.n), tt.max))
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Chunk(%d blocks, %d): expected %v, got %v", tt.n, tt.max, tt.want, got)
		}
	}
}

func TestChunk_AppendDoesNotClobberNextChunk(t *testing.T) {
	blocks := paragraphs(4)
	chunks := Chunk(blocks, 2)

	_ = append(chunks[0].Blocks, doctree.Divider())
	if chunks[1].Blocks[0].Kind != doctree.KindParagraph {
		t.Error("appending to chunk 0 overwrote chunk 1")
	}
}

func TestChunkDocument_ByteCap(t *testing.T) {
	big := doctree.Paragraph([]doctree.TextRun{{Content: strings.Repeat("x", 1000)}})
	small := doctree.Paragraph([]doctree.TextRun{{Content: "y"}})
	doc := &doctree.Document{Blocks: []doctree.Block{small, small, big, small, big, big}}

	limit := EstimateBytes(small)*2 + EstimateBytes(big)
	chunks := ChunkDocument(doc, Config{MaxBlocks: 100, MaxBytes: limit})

	if got, want := Sizes(chunks), []int{3, 2, 1}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected sizes %v, got %v", want, got)
	}
}

func TestChunkDocument_OversizedBlockTravelsAlone(t *testing.T) {
	big := doctree.CodeBlock("go", strings.Repeat("x", 5000))
	small := doctree.Divider()
	doc := &doctree.Document{Blocks: []doctree.Block{small, big, small}}

	chunks := ChunkDocument(doc, Config{MaxBytes: 500})
	if got, want := Sizes(chunks), []int{1, 1, 1}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected sizes %v, got %v", want, got)
	}
}

func TestChunkDocument_BlockLimitStillApplies(t *testing.T) {
	doc := &doctree.Document{Blocks: paragraphs(12)}
	chunks := ChunkDocument(doc, Config{MaxBlocks: 5, MaxBytes: 1 << 20})
	if got, want := Sizes(chunks), []int{5, 5, 2}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected sizes %v, got %v", want, got)
	}
}

func TestEstimateBytes(t *testing.T) {
	div := EstimateBytes(doctree.Divider())
	para := EstimateBytes(doctree.Paragraph([]doctree.TextRun{{Content: "hello"}}))
	if para <= div {
		t.Errorf("expected paragraph estimate %d above divider estimate %d", para, div)
	}

	table := doctree.NewTable(
		doctree.Row{{{Content: "a"}}, {{Content: "b"}}},
		[]doctree.Row{{{{Content: "1"}}}},
	)
	oneRow := doctree.NewTable(doctree.Row{{{Content: "a"}}, {{Content: "b"}}}, nil)
	if EstimateBytes(table) <= EstimateBytes(oneRow) {
		t.Error("expected extra table rows to increase the estimate")
	}

	if got := EstimateTotal([]doctree.Block{doctree.Divider(), doctree.Divider()}); got != 2*div {
		t.Errorf("expected total %d, got %d", 2*div, got)
	}
}
