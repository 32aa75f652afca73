package processor

import "strings"

// Default chunking parameters (word counts).
const (
	DefaultChunkSize    = 100
	DefaultChunkOverlap = 20
)

// ChunkText splits text into overlapping word-window chunks.
// Each chunk holds up to size words; consecutive chunks share overlap
// words so no boundary context is lost. Empty or whitespace-only text
// yields no chunks.
func ChunkText(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultChunkOverlap
		if overlap >= size {
			overlap = size / 2
		}
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if len(words) <= size {
		return []string{strings.Join(words, " ")}
	}

	step := size - overlap
	var chunks []string
	for start := 0; start < len(words); start += step {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}
