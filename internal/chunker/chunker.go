package chunker

import (
	"github.com/dgallion1/mdnotion/internal/doctree"
)

// DefaultMaxBlocks is the Notion API limit on children per append request.
const DefaultMaxBlocks = 100

// Config controls chunking behavior.
type Config struct {
	MaxBlocks int // Maximum blocks per chunk. <= 0 means DefaultMaxBlocks.
	MaxBytes  int // Soft cap on the estimated request size of a chunk. <= 0 disables it.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{MaxBlocks: DefaultMaxBlocks}
}

// Chunk partitions blocks, in order, into chunks of at most maxSize blocks.
// Every chunk except possibly the last is full. An empty input yields no chunks.
func Chunk(blocks []doctree.Block, maxSize int) []doctree.Chunk {
	return ChunkDocument(&doctree.Document{Blocks: blocks}, Config{MaxBlocks: maxSize})
}

// ChunkDocument partitions the document's blocks according to cfg. Blocks are
// never split; when MaxBytes is set a chunk is closed before the block that
// would push its estimated size past the cap, and a block that exceeds the cap
// on its own travels alone.
func ChunkDocument(doc *doctree.Document, cfg Config) []doctree.Chunk {
	if cfg.MaxBlocks <= 0 {
		cfg.MaxBlocks = DefaultMaxBlocks
	}

	var chunks []doctree.Chunk
	start, size := 0, 0

	flush := func(end int) {
		// Full slice expression so appending to a chunk never writes into the next one.
		chunks = append(chunks, doctree.Chunk{
			Index:  len(chunks),
			Blocks: doc.Blocks[start:end:end],
		})
		start, size = end, 0
	}

	for i, b := range doc.Blocks {
		est := EstimateBytes(b)
		if i > start && cfg.MaxBytes > 0 && size+est > cfg.MaxBytes {
			flush(i)
		}
		size += est
		if i+1-start == cfg.MaxBlocks {
			flush(i + 1)
		}
	}
	if start < len(doc.Blocks) {
		flush(len(doc.Blocks))
	}

	return chunks
}

// Sizes returns the number of blocks in each chunk.
func Sizes(chunks []doctree.Chunk) []int {
	out := make([]int, len(chunks))
	for i, c := range chunks {
		out[i] = len(c.Blocks)
	}
	return out
}
