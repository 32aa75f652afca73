package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/registry"
	"github.com/blevesearch/bleve/v2/search"
)

const (
	// CodeTokenizerName is the name of our custom code tokenizer.
	CodeTokenizerName = "code_tokenizer"

	// CodeStopFilterName is the name of our custom stop word filter.
	CodeStopFilterName = "code_stop"

	// CodeAnalyzerName is the name of our custom code analyzer.
	CodeAnalyzerName = "code_analyzer"
)

func init() {
	_ = registry.RegisterTokenizer(CodeTokenizerName, codeTokenizerConstructor)
	_ = registry.RegisterTokenFilter(CodeStopFilterName, codeStopFilterConstructor)
}

// BM25Index provides keyword search over uint64-keyed documents using the
// BM25 ranking of an in-memory Bleve index.
//
// The raw documents are retained alongside the engine so that Save writes a
// complete snapshot and Load can rebuild the engine losslessly. The engine
// itself is never serialized.
type BM25Index struct {
	mu     sync.RWMutex
	index  bleve.Index
	config BM25Config

	// docs is the authoritative id -> content map backing persistence.
	docs   map[uint64]string
	nextID uint64

	closed bool
}

// bleveDocument is the document structure handed to Bleve.
type bleveDocument struct {
	Content string `json:"content"`
}

// persistedDoc is one entry of the on-disk snapshot.
type persistedDoc struct {
	ID      uint64 `json:"id"`
	Content string `json:"content"`
}

// persistedIndex is the on-disk snapshot format.
type persistedIndex struct {
	K1           float64        `json:"k1"`
	B            float64        `json:"b"`
	AvgDocLength float64        `json:"avgdl"`
	NextID       uint64         `json:"next_id"`
	Documents    []persistedDoc `json:"documents"`
}

// NewBM25Index creates a new in-memory BM25 index.
func NewBM25Index(config BM25Config) (*BM25Index, error) {
	indexMapping, err := createIndexMapping()
	if err != nil {
		return nil, fmt.Errorf("failed to create index mapping: %w", err)
	}

	idx, err := bleve.NewMemOnly(indexMapping)
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &BM25Index{
		index:  idx,
		config: config,
		docs:   make(map[uint64]string),
	}, nil
}

// createIndexMapping creates the Bleve index mapping with the code analyzer.
func createIndexMapping() (*mapping.IndexMappingImpl, error) {
	indexMapping := bleve.NewIndexMapping()

	err := indexMapping.AddCustomAnalyzer(CodeAnalyzerName, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": CodeTokenizerName,
		"token_filters": []string{
			lowercase.Name,
			CodeStopFilterName,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add custom analyzer: %w", err)
	}

	indexMapping.DefaultAnalyzer = CodeAnalyzerName

	return indexMapping, nil
}

// Add indexes content under an explicit id, replacing any existing document
// with the same id. The auto-id counter advances past explicit ids so AddAuto
// never collides with them.
func (b *BM25Index) Add(id uint64, content string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addLocked(id, content)
}

// AddAuto indexes content under the next auto-assigned id and returns it.
func (b *BM25Index) AddAuto(content string) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	if err := b.addLocked(id, content); err != nil {
		return 0, err
	}
	return id, nil
}

// AddBatch indexes multiple documents in a single Bleve batch.
func (b *BM25Index) AddBatch(ids []uint64, contents []string) error {
	if len(ids) != len(contents) {
		return fmt.Errorf("ids and contents length mismatch: %d vs %d", len(ids), len(contents))
	}
	if len(ids) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("index is closed")
	}

	batch := b.index.NewBatch()
	for i, id := range ids {
		if err := batch.Index(docKey(id), bleveDocument{Content: contents[i]}); err != nil {
			return fmt.Errorf("failed to index document %d: %w", id, err)
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute batch: %w", err)
	}

	for i, id := range ids {
		b.docs[id] = contents[i]
		if id >= b.nextID {
			b.nextID = id + 1
		}
	}
	return nil
}

func (b *BM25Index) addLocked(id uint64, content string) error {
	if b.closed {
		return fmt.Errorf("index is closed")
	}

	if err := b.index.Index(docKey(id), bleveDocument{Content: content}); err != nil {
		return fmt.Errorf("failed to index document %d: %w", id, err)
	}

	b.docs[id] = content
	if id >= b.nextID {
		b.nextID = id + 1
	}
	return nil
}

// Search returns documents matching the query, scored by BM25 and ordered
// score-descending with ascending-id tie-break.
func (b *BM25Index) Search(ctx context.Context, queryStr string, limit int) ([]*BM25Match, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, fmt.Errorf("index is closed")
	}

	if strings.TrimSpace(queryStr) == "" {
		return []*BM25Match{}, nil
	}

	matchQuery := bleve.NewMatchQuery(queryStr)
	matchQuery.SetField("content")

	searchRequest := bleve.NewSearchRequest(matchQuery)
	searchRequest.Size = limit
	searchRequest.IncludeLocations = true // For matched terms

	result, err := b.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	results := make([]*BM25Match, 0, len(result.Hits))
	for _, hit := range result.Hits {
		id, err := strconv.ParseUint(hit.ID, 10, 64)
		if err != nil {
			continue
		}
		results = append(results, &BM25Match{
			ID:           id,
			Score:        hit.Score,
			MatchedTerms: extractMatchedTerms(hit),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	return results, nil
}

// Content returns the stored content for an id.
func (b *BM25Index) Content(id uint64) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	content, ok := b.docs[id]
	return content, ok
}

// Remove deletes documents from the index.
func (b *BM25Index) Remove(ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("index is closed")
	}

	batch := b.index.NewBatch()
	for _, id := range ids {
		batch.Delete(docKey(id))
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}

	for _, id := range ids {
		delete(b.docs, id)
	}
	return nil
}

// AllIDs returns all document IDs in ascending order.
func (b *BM25Index) AllIDs() []uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := make([]uint64, 0, len(b.docs))
	for id := range b.docs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Count returns the number of documents in the index.
func (b *BM25Index) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.docs)
}

// Stats returns index statistics.
func (b *BM25Index) Stats() *BM25Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return &BM25Stats{
		DocumentCount: len(b.docs),
		AvgDocLength:  b.config.AvgDocLength,
	}
}

// Config returns the index configuration.
func (b *BM25Index) Config() BM25Config {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.config
}

// Save writes the full document snapshot to path atomically
// (temp file + rename). Documents are ordered by id for stable output.
func (b *BM25Index) Save(path string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("index is closed")
	}

	snapshot := persistedIndex{
		K1:           b.config.K1,
		B:            b.config.B,
		AvgDocLength: b.config.AvgDocLength,
		NextID:       b.nextID,
		Documents:    make([]persistedDoc, 0, len(b.docs)),
	}
	for id, content := range b.docs {
		snapshot.Documents = append(snapshot.Documents, persistedDoc{ID: id, Content: content})
	}
	sort.Slice(snapshot.Documents, func(i, j int) bool {
		return snapshot.Documents[i].ID < snapshot.Documents[j].ID
	})

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal index snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write index snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename index snapshot: %w", err)
	}
	return nil
}

// LoadBM25Index reads a snapshot written by Save and rebuilds the engine
// from the raw documents.
func LoadBM25Index(path string, config BM25Config) (*BM25Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read index snapshot: %w", err)
	}

	var snapshot persistedIndex
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse index snapshot: %w", err)
	}

	if snapshot.K1 != 0 {
		config.K1 = snapshot.K1
	}
	if snapshot.B != 0 {
		config.B = snapshot.B
	}
	if snapshot.AvgDocLength != 0 {
		config.AvgDocLength = snapshot.AvgDocLength
	}

	idx, err := NewBM25Index(config)
	if err != nil {
		return nil, err
	}

	ids := make([]uint64, len(snapshot.Documents))
	contents := make([]string, len(snapshot.Documents))
	for i, doc := range snapshot.Documents {
		ids[i] = doc.ID
		contents[i] = doc.Content
	}
	if err := idx.AddBatch(ids, contents); err != nil {
		_ = idx.Close()
		return nil, err
	}

	idx.mu.Lock()
	if snapshot.NextID > idx.nextID {
		idx.nextID = snapshot.NextID
	}
	idx.mu.Unlock()

	return idx, nil
}

// Close closes the index.
func (b *BM25Index) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	b.closed = true
	if b.index != nil {
		return b.index.Close()
	}
	return nil
}

// docKey converts a uint64 id to the Bleve document key.
func docKey(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// extractMatchedTerms extracts matched terms from a search hit.
func extractMatchedTerms(hit *search.DocumentMatch) []string {
	terms := make(map[string]struct{})
	for field, locations := range hit.Locations {
		if field == "content" {
			for term := range locations {
				terms[term] = struct{}{}
			}
		}
	}

	result := make([]string, 0, len(terms))
	for term := range terms {
		result = append(result, term)
	}
	sort.Strings(result)
	return result
}

// codeTokenizerConstructor creates a new code tokenizer for Bleve.
func codeTokenizerConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.Tokenizer, error) {
	return &bleveCodeTokenizer{}, nil
}

// bleveCodeTokenizer implements analysis.Tokenizer for code-aware tokenization.
type bleveCodeTokenizer struct{}

// Tokenize implements analysis.Tokenizer.
func (t *bleveCodeTokenizer) Tokenize(input []byte) analysis.TokenStream {
	text := string(input)
	tokens := TokenizeCode(text)

	result := make(analysis.TokenStream, 0, len(tokens))
	pos := 1
	offset := 0

	for _, token := range tokens {
		// Find token position in original text (case-insensitive search)
		start := strings.Index(strings.ToLower(text[offset:]), strings.ToLower(token))
		if start == -1 {
			start = offset
		} else {
			start += offset
		}
		end := start + len(token)

		result = append(result, &analysis.Token{
			Term:     []byte(token),
			Start:    start,
			End:      end,
			Position: pos,
			Type:     analysis.AlphaNumeric,
		})
		pos++
		if end <= len(text) {
			offset = end
		}
	}

	return result
}

// codeStopFilterConstructor creates a code stop word filter for Bleve.
func codeStopFilterConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.TokenFilter, error) {
	return &bleveCodeStopFilter{
		stopWords: BuildStopWordMap(DefaultCodeStopWords),
	}, nil
}

// bleveCodeStopFilter implements analysis.TokenFilter for code stop words.
type bleveCodeStopFilter struct {
	stopWords map[string]struct{}
}

// Filter implements analysis.TokenFilter.
func (f *bleveCodeStopFilter) Filter(input analysis.TokenStream) analysis.TokenStream {
	result := make(analysis.TokenStream, 0, len(input))
	for _, token := range input {
		term := strings.ToLower(string(token.Term))
		if _, isStop := f.stopWords[term]; !isStop {
			result = append(result, token)
		}
	}
	return result
}
