package source

import (
	"crypto/sha256"
	"fmt"
	"os"

	"fortio.org/safecast"
)

// FileSet owns the sources of one check run and answers position queries.
// Slot 0 is reserved so that a zero Span never resolves to a real file.
type FileSet struct {
	files []File
	index map[string]FileID
}

func NewFileSet() *FileSet {
	return &FileSet{
		files: make([]File, 1),
		index: make(map[string]FileID),
	}
}

// Add stores already normalised bytes and returns a fresh FileID. Adding the
// same path twice yields two IDs; the path index tracks the latest one.
func (fs *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	n, err := safecast.Conv[uint32](len(fs.files))
	if err != nil {
		panic(fmt.Errorf("len files overflow: %w", err))
	}
	id := FileID(n)
	p := normalizePath(path)
	fs.files = append(fs.files, File{
		ID:      id,
		Path:    p,
		Content: content,
		LineIdx: buildLineIndex(content),
		Hash:    sha256.Sum256(content),
		Flags:   flags,
	})
	fs.index[p] = id
	return id
}

// Load reads path from disk, strips a BOM and folds CRLF before calling Add.
func (fs *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return NoFileID, err
	}
	content, hadBOM := removeBOM(content)
	content, hadCRLF := normalizeCRLF(content)

	var flags FileFlags
	if hadBOM {
		flags |= FileHadBOM
	}
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return fs.Add(path, content, flags), nil
}

func (fs *FileSet) AddVirtual(name string, content []byte) FileID {
	content, _ = normalizeCRLF(content)
	return fs.Add(name, content, FileVirtual)
}

// Get returns nil for NoFileID and unknown IDs.
func (fs *FileSet) Get(id FileID) *File {
	if id == NoFileID || int(id) >= len(fs.files) {
		return nil
	}
	return &fs.files[id]
}

func (fs *FileSet) GetLatest(path string) (FileID, bool) {
	id, ok := fs.index[normalizePath(path)]
	return id, ok
}

// Len reports the number of loaded files.
func (fs *FileSet) Len() int {
	return len(fs.files) - 1
}

// Resolve converts a span into line and column positions.
func (fs *FileSet) Resolve(span Span) (start, end LineCol) {
	f := fs.Get(span.File)
	if f == nil {
		return LineCol{}, LineCol{}
	}
	return toLineCol(f.LineIdx, span.Start), toLineCol(f.LineIdx, span.End)
}

// LineSpan returns the span covering line (1-based) without its newline.
// Lines past the end of the file clamp to an empty span at EOF.
func (fs *FileSet) LineSpan(id FileID, line uint32) Span {
	f := fs.Get(id)
	if f == nil || line == 0 {
		return Span{File: id}
	}
	start, end := f.lineBounds(line)
	return Span{File: id, Start: start, End: end}
}

func (f *File) contentLen() uint32 {
	n, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("content length overflow: %w", err))
	}
	return n
}

func (f *File) lineBounds(line uint32) (start, end uint32) {
	size := f.contentLen()
	nl, err := safecast.Conv[uint32](len(f.LineIdx))
	if err != nil {
		panic(fmt.Errorf("line index length overflow: %w", err))
	}
	switch {
	case line == 1:
		start = 0
	case line-2 < nl:
		start = f.LineIdx[line-2] + 1
	default:
		return size, size
	}
	if line-1 < nl {
		end = f.LineIdx[line-1]
	} else {
		end = size
	}
	if start > size {
		start = size
	}
	if end > size {
		end = size
	}
	return start, end
}

// GetLine returns the text of line (1-based), or "" when out of range.
func (f *File) GetLine(line uint32) string {
	if line == 0 {
		return ""
	}
	start, end := f.lineBounds(line)
	if start >= end {
		return ""
	}
	return string(f.Content[start:end])
}
