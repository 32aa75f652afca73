package processor

import (
	"errors"

	semerr "github.com/semidx/semidx/internal/errors"
	"github.com/semidx/semidx/internal/pattern"
)

// Cancellation polling granularity.
const (
	countCheckInterval   = 100 // Files between cancel checks while counting
	progressFileInterval = 10  // Processed files between progress reports
)

// Processor runs the directory-walk phases of an indexing operation
// with cooperative cancellation.
type Processor struct {
	chunkSize    int
	chunkOverlap int
	maxFiles     int
}

// NewProcessor creates a background file processor.
func NewProcessor(chunkSize, chunkOverlap, maxFiles int) *Processor {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = DefaultChunkOverlap
	}
	return &Processor{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		maxFiles:     maxFiles,
	}
}

// CountFiles counts indexable files under dir, checking the cancelled
// callback every 100 files. The count stops early at the configured
// max-files ceiling instead of erroring.
func (p *Processor) CountFiles(dir string, filter *pattern.Filter, cancelled func() bool) (int, error) {
	count := 0
	checked := 0

	err := walkFiles(dir, func(path string) error {
		if filter != nil && !filter.ShouldInclude(path) {
			return nil
		}

		count++
		checked++

		if cancelled != nil && checked%countCheckInterval == 0 && cancelled() {
			return semerr.Cancelled("Operation cancelled during file counting")
		}

		if p.maxFiles > 0 && count > p.maxFiles {
			return errStopWalk
		}
		return nil
	})

	if errors.Is(err, errStopWalk) {
		return count, nil
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}

// CollectItems processes every matched file under dir into items,
// checking cancellation per file and reporting progress every 10 files.
// Individual file failures are skipped.
func (p *Processor) CollectItems(
	dir string,
	filter *pattern.Filter,
	cancelled func() bool,
	onProgress func(processed int),
) ([]Item, error) {
	var items []Item
	processed := 0

	err := walkFiles(dir, func(path string) error {
		if cancelled != nil && cancelled() {
			return semerr.Cancelled("Operation was cancelled during file processing")
		}

		if filter != nil && !filter.ShouldInclude(path) {
			return nil
		}

		fileItems, err := ProcessFile(path, p.chunkSize, p.chunkOverlap)
		if err != nil {
			return nil // Skip unreadable files
		}
		items = append(items, fileItems...)

		processed++
		if onProgress != nil && processed%progressFileInterval == 0 {
			onProgress(processed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// errStopWalk terminates a walk early without signalling failure.
var errStopWalk = errors.New("walk stopped")
