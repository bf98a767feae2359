// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package docx reads and updates the comment parts of a DOCX package:
// comments.xml, commentsExtended.xml (threads and resolution),
// commentsIds.xml (durable ids) and people.xml (presence). Every other
// part is carried through byte for byte.
package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/pdiddy/dmc/internal/fsutil"
)

// Part names inside the package.
const (
	PartContentTypes     = "[Content_Types].xml"
	PartDocument         = "word/document.xml"
	PartDocumentRels     = "word/_rels/document.xml.rels"
	PartComments         = "word/comments.xml"
	PartCommentsExtended = "word/commentsExtended.xml"
	PartCommentsIDs      = "word/commentsIds.xml"
	PartPeople           = "word/people.xml"
)

type part struct {
	name   string
	method uint16
	header zip.FileHeader
	data   []byte
}

// Package is a DOCX archive held in memory. Parts keep their archive order.
type Package struct {
	parts []*part
	index map[string]*part
}

// Open reads the DOCX file at path.
func Open(path string) (*Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	p, err := Read(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Read parses a DOCX archive from memory.
func Read(data []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening DOCX archive: %w", err)
	}

	p := &Package{index: make(map[string]*part, len(zr.File))}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening part %s: %w", f.Name, err)
		}
		b, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("reading part %s: %w", f.Name, err)
		}
		pt := &part{name: f.Name, method: f.Method, header: f.FileHeader, data: b}
		p.parts = append(p.parts, pt)
		p.index[f.Name] = pt
	}

	if _, ok := p.index[PartDocument]; !ok {
		return nil, fmt.Errorf("not a DOCX package: %s is missing", PartDocument)
	}
	return p, nil
}

// Part returns the content of the named part.
func (p *Package) Part(name string) ([]byte, bool) {
	pt, ok := p.index[name]
	if !ok {
		return nil, false
	}
	return pt.data, true
}

// SetPart replaces the named part, appending it when new.
func (p *Package) SetPart(name string, data []byte) {
	if pt, ok := p.index[name]; ok {
		pt.data = data
		return
	}
	pt := &part{name: name, method: zip.Deflate, data: data}
	p.parts = append(p.parts, pt)
	p.index[name] = pt
}

// PartNames lists parts in archive order.
func (p *Package) PartNames() []string {
	names := make([]string, len(p.parts))
	for i, pt := range p.parts {
		names[i] = pt.name
	}
	return names
}

// WriteTo serialises the package as a zip archive.
func (p *Package) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)
	for _, pt := range p.parts {
		h := &zip.FileHeader{
			Name:     pt.name,
			Method:   pt.method,
			Modified: pt.header.Modified,
			Comment:  pt.header.Comment,
		}
		fw, err := zw.CreateHeader(h)
		if err != nil {
			return cw.n, fmt.Errorf("writing part %s: %w", pt.name, err)
		}
		if _, err := fw.Write(pt.data); err != nil {
			return cw.n, fmt.Errorf("writing part %s: %w", pt.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return cw.n, fmt.Errorf("finishing DOCX archive: %w", err)
	}
	return cw.n, nil
}

// Bytes returns the serialised archive.
func (p *Package) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := p.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes the package to path atomically.
func (p *Package) WriteFile(path string, perm os.FileMode) error {
	return fsutil.WriteFrom(path, perm, func(w io.Writer) error {
		_, err := p.WriteTo(w)
		return err
	})
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	c.n += int64(n)
	return n, err
}
