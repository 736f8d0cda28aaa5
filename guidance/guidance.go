// Package guidance assembles the instructional context for a synthesis
// session: static guidance documents loaded once at startup, followed by the
// user-supplied instructions.
package guidance

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Delimiter separates guidance documents in the assembled context.
const Delimiter = "\n\n---\n\n"

// ErrLoadFailed wraps failures to read a guidance document. Loading fails
// fast: a missing document would silently degrade generation quality if it
// were omitted instead.
var ErrLoadFailed = errors.New("guidance load failed")

// Doc is one static guidance document. Content is opaque to the core.
type Doc struct {
	Name string
	Text string
}

// Context is the assembled instructional context. Stable holds the joined
// guidance documents; it is identical on every iteration of a session and
// materially larger than the instructions, so adapters may mark it for
// backend-side prompt caching.
type Context struct {
	Stable       string
	Instructions string
}

// Full returns the single concatenated context: guidance followed by the
// instructions.
func (c Context) Full() string {
	if c.Stable == "" {
		return c.Instructions
	}
	return c.Stable + Delimiter + c.Instructions
}

// LoadFiles reads each path into a Doc, in order. Any unreadable document
// aborts the whole load with a wrapped ErrLoadFailed.
func LoadFiles(paths ...string) ([]Doc, error) {
	docs := make([]Doc, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadFailed, path, err)
		}
		docs = append(docs, Doc{Name: filepath.Base(path), Text: string(data)})
	}
	return docs, nil
}

// LoadFS reads every named file from fsys, in order. Used for documents
// embedded in the binary.
func LoadFS(fsys fs.FS, names ...string) ([]Doc, error) {
	docs := make([]Doc, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadFailed, name, err)
		}
		docs = append(docs, Doc{Name: filepath.Base(name), Text: string(data)})
	}
	return docs, nil
}

// Assemble joins the guidance documents in caller order, separated by the
// visible delimiter, and pairs them with the instructions. Content is never
// transformed.
func Assemble(instructions string, docs ...Doc) Context {
	texts := make([]string, 0, len(docs))
	for _, doc := range docs {
		texts = append(texts, doc.Text)
	}

	return Context{
		Stable:       strings.Join(texts, Delimiter),
		Instructions: instructions,
	}
}
