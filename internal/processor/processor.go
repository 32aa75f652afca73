package processor

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	semerr "github.com/semidx/semidx/internal/errors"
	"github.com/semidx/semidx/internal/pattern"
)

// codeExtensions maps lowercase extensions to FileTypeCode.
var codeExtensions = map[string]bool{
	"rs": true, "py": true,
	"js": true, "jsx": true, "ts": true, "tsx": true,
	"java": true,
	"c":    true, "cpp": true, "h": true, "hpp": true,
	"go": true, "rb": true, "php": true, "swift": true,
	"kt": true, "kts": true, "cs": true,
	"sh": true, "bash": true, "zsh": true,
	"html": true, "htm": true, "xml": true,
	"css": true, "scss": true, "sass": true, "less": true,
	"sql": true, "yaml": true, "yml": true, "toml": true,
}

// textExtensions maps lowercase extensions to FileTypeText.
var textExtensions = map[string]bool{
	"txt": true, "json": true,
	"ini": true, "conf": true, "cfg": true, "properties": true, "env": true,
	"csv": true, "tsv": true, "log": true,
	"rtf": true, "tex": true, "rst": true, "svg": true,
}

// extensionlessTextFiles are well-known project files without extensions.
var extensionlessTextFiles = map[string]bool{
	"Dockerfile": true, "Makefile": true,
	"LICENSE": true, "CHANGELOG": true, "README": true,
}

// textDotfiles are dotfiles treated as text; other dotfiles are Unknown.
var textDotfiles = map[string]bool{
	".gitignore": true, ".env": true, ".dockerignore": true,
}

// Classify maps a path to a FileType by extension (case-insensitive)
// and by well-known extensionless filenames.
func Classify(path string) FileType {
	base := filepath.Base(path)
	ext := strings.TrimPrefix(filepath.Ext(base), ".")

	// Dotfiles like ".gitignore" have no extension in this scheme
	if strings.HasPrefix(base, ".") && ext == strings.TrimPrefix(base, ".") {
		ext = ""
	}

	if ext == "" {
		if extensionlessTextFiles[base] {
			return FileTypeText
		}
		if strings.HasPrefix(base, ".") {
			if textDotfiles[base] {
				return FileTypeText
			}
			return FileTypeUnknown
		}
		return FileTypeUnknown
	}

	lower := strings.ToLower(ext)
	switch {
	case lower == "md" || lower == "markdown" || lower == "mdx":
		return FileTypeMarkdown
	case codeExtensions[lower]:
		return FileTypeCode
	case textExtensions[lower]:
		return FileTypeText
	default:
		return FileTypeUnknown
	}
}

// ProcessFile reads a file and converts it into items.
// Text-bearing files are chunked; an empty file still yields exactly one
// item with empty text. Unknown files yield a single path-only item.
func ProcessFile(path string, chunkSize, chunkOverlap int) ([]Item, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, semerr.InvalidPath(path, err)
	}
	if info.IsDir() {
		return nil, semerr.InvalidPath(path, nil).
			WithDetail("reason", "path is a directory")
	}

	fileType := Classify(path)
	if fileType == FileTypeUnknown {
		return []Item{{Path: path, FileType: FileTypeUnknown}}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, semerr.IOError("failed to read file "+path, err)
	}

	language := ""
	if fileType == FileTypeCode {
		language = strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	}

	chunks := ChunkText(string(data), chunkSize, chunkOverlap)
	if len(chunks) == 0 {
		// Empty file still produces one item
		chunks = []string{""}
	}

	items := make([]Item, 0, len(chunks))
	for i, chunk := range chunks {
		items = append(items, Item{
			Text:        chunk,
			Path:        path,
			FileType:    fileType,
			ChunkIndex:  i,
			TotalChunks: len(chunks),
			Language:    language,
		})
	}
	return items, nil
}

// ProcessDirectory walks a directory tree (following symlinks), skips
// dotfiles, applies the optional pattern filter, and concatenates the
// items of every matched file. A single file's failure skips that file
// without failing the walk.
func ProcessDirectory(dir string, filter *pattern.Filter, chunkSize, chunkOverlap int) ([]Item, error) {
	var items []Item

	err := walkFiles(dir, func(path string) error {
		if filter != nil && !filter.ShouldInclude(path) {
			return nil
		}
		fileItems, err := ProcessFile(path, chunkSize, chunkOverlap)
		if err != nil {
			return nil // Skip unreadable files
		}
		items = append(items, fileItems...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// walkFiles visits every regular file under dir, following symlinked
// directories and skipping dotfiles. Walk errors on individual entries
// are swallowed.
func walkFiles(dir string, visit func(path string) error) error {
	seen := map[string]bool{}
	return walkFilesInner(dir, seen, visit)
}

func walkFilesInner(dir string, seen map[string]bool, visit func(path string) error) error {
	// Resolve symlinks so cycles terminate
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		resolved = dir
	}
	if seen[resolved] {
		return nil
	}
	seen[resolved] = true

	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return semerr.IOError("failed to walk directory "+dir, err)
			}
			return nil // Skip entries we cannot access
		}

		name := d.Name()
		if path != dir && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		// Follow symlinked directories by recursing into them
		if d.Type()&fs.ModeSymlink != 0 {
			target, statErr := os.Stat(path)
			if statErr != nil {
				return nil
			}
			if target.IsDir() {
				return walkFilesInner(path, seen, visit)
			}
			return visit(path)
		}

		if d.IsDir() {
			return nil
		}
		return visit(path)
	})
}
