// Package processor classifies files, chunks their text, and walks
// directory trees to produce indexable items.
package processor

// FileType classifies a file for indexing purposes.
type FileType string

const (
	// FileTypeText is plain text, config, and data files.
	FileTypeText FileType = "Text"

	// FileTypeMarkdown is markdown documentation.
	FileTypeMarkdown FileType = "Markdown"

	// FileTypeCode is source code in a recognized language.
	FileTypeCode FileType = "Code"

	// FileTypeUnknown is anything else (binaries, office docs, media).
	FileTypeUnknown FileType = "Unknown"
)

// String returns the string representation of the file type.
func (t FileType) String() string {
	return string(t)
}

// Item is one indexable unit extracted from a file. Text-bearing files
// produce one Item per chunk; unknown files produce a single path-only Item.
type Item struct {
	Text        string   `json:"text,omitempty"`
	Path        string   `json:"path"`
	FileType    FileType `json:"file_type"`
	ChunkIndex  int      `json:"chunk_index"`
	TotalChunks int      `json:"total_chunks"`
	Language    string   `json:"language,omitempty"`
}

// Payload returns the item's metadata as a generic map, the shape stored
// in a data point's payload.
func (it Item) Payload() map[string]any {
	payload := map[string]any{
		"text":         it.Text,
		"path":         it.Path,
		"file_type":    string(it.FileType),
		"chunk_index":  it.ChunkIndex,
		"total_chunks": it.TotalChunks,
	}
	if it.Language != "" {
		payload["language"] = it.Language
	}
	if it.FileType == FileTypeUnknown {
		// Unknown files carry no text or chunk bookkeeping
		delete(payload, "text")
		delete(payload, "chunk_index")
		delete(payload, "total_chunks")
	}
	return payload
}
