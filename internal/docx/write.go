// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docx

import (
	"bytes"
	"encoding/binary"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"slices"
	"strconv"

	"github.com/google/uuid"

	"github.com/pdiddy/dmc/internal/comments"
	"github.com/pdiddy/dmc/pkg/types"
)

// Namespaces and content types of the comment companion parts.
const (
	nsMC     = "http://schemas.openxmlformats.org/markup-compatibility/2006"
	nsW14    = "http://schemas.microsoft.com/office/word/2010/wordml"
	nsW15    = "http://schemas.microsoft.com/office/word/2012/wordml"
	nsW16CID = "http://schemas.microsoft.com/office/word/2016/wordml/cid"

	ctCommentsExtended = "application/vnd.openxmlformats-officedocument.wordprocessingml.commentsExtended+xml"
	ctCommentsIDs      = "application/vnd.openxmlformats-officedocument.wordprocessingml.commentsIds+xml"
	ctPeople           = "application/vnd.openxmlformats-officedocument.wordprocessingml.people+xml"

	relCommentsExtended = "http://schemas.microsoft.com/office/2011/relationships/commentsExtended"
	relCommentsIDs      = "http://schemas.microsoft.com/office/2016/09/relationships/commentsIds"
	relPeople           = "http://schemas.microsoft.com/office/2011/relationships/people"

	xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"
)

// paraIDSpace namespaces generated paragraph ids.
var paraIDSpace = uuid.MustParse("6f1d3c0a-5b7e-4f4e-9a51-2c8d0e7b9a10")

var (
	paraIDAttr = regexp.MustCompile(`\s(?:[\w.-]+:)?paraId\s*=\s*("[^"]*"|'[^']*')`)
	relIDAttr  = regexp.MustCompile(`\bId="rId(\d+)"`)
)

// ApplyComments writes thread, resolution, durable id and presence
// metadata for list into the package. Comments are matched to
// comments.xml by id; comments already in the package but absent from
// list keep what they have. Missing paragraph ids are generated
// deterministically. Durable ids and presence are written only when
// supplied.
func (p *Package) ApplyComments(list []types.Comment) error {
	data, ok := p.Part(PartComments)
	if !ok {
		if len(list) == 0 {
			return nil
		}
		return fmt.Errorf("package has no %s for %d comments", PartComments, len(list))
	}

	existing, err := p.Comments()
	if err != nil {
		return err
	}
	want := make(map[string]types.Comment, len(list))
	for _, c := range list {
		want[c.ID] = c
	}
	merged := make([]types.Comment, 0, len(existing))
	supplied := make(map[string]bool)
	for _, c := range existing {
		if w, ok := want[c.ID]; ok {
			switch {
			case w.ParaID == "":
				w.ParaID = c.ParaID
			case w.ParaID != c.ParaID:
				if !validParaID(w.ParaID) {
					return &comments.StructureError{ID: c.ID, Reason: fmt.Sprintf("paraId %q is not 8 hex digits below 80000000", w.ParaID)}
				}
				supplied[c.ID] = true
			}
			delete(want, c.ID)
			c = w
		}
		merged = append(merged, c)
	}
	for _, c := range list {
		if _, missing := want[c.ID]; missing {
			return fmt.Errorf("comment %q is not in %s", c.ID, PartComments)
		}
	}

	scan, err := scanCommentParagraphs(data)
	if err != nil {
		return err
	}
	used := scan.paraIDs
	if doc, ok := p.Part(PartDocument); ok {
		if err := collectParaIDs(PartDocument, doc, used); err != nil {
			return err
		}
	}
	for _, c := range merged {
		if _, ok := scan.last[c.ID]; !ok {
			return fmt.Errorf("comment %q has no paragraph to carry its paraId", c.ID)
		}
		if supplied[c.ID] {
			if used[c.ParaID] {
				return &comments.StructureError{ID: c.ID, Reason: fmt.Sprintf("paraId %s is already used by another paragraph", c.ParaID)}
			}
			used[c.ParaID] = true
		}
	}
	for i := range merged {
		if merged[i].ParaID == "" {
			merged[i].ParaID = newParaID(merged[i], used)
		}
	}

	p.SetPart(PartComments, patchComments(data, scan, merged))
	return p.writeCompanions(merged)
}

type tagSpan struct{ start, end int }

type paragraphScan struct {
	root    tagSpan
	last    map[string]tagSpan
	paraIDs map[string]bool
}

// scanCommentParagraphs locates the root start tag and the start tag of
// each comment's last paragraph by byte offset.
func scanCommentParagraphs(data []byte) (paragraphScan, error) {
	s := paragraphScan{root: tagSpan{-1, -1}, last: make(map[string]tagSpan), paraIDs: make(map[string]bool)}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var current string
	inComment := false
	for {
		start := int(dec.InputOffset())
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return s, fmt.Errorf("parsing %s: %w", PartComments, err)
		}
		end := int(dec.InputOffset())
		switch t := tok.(type) {
		case xml.StartElement:
			if s.root.start < 0 {
				s.root = tagSpan{start, end}
			}
			switch t.Name.Local {
			case "comment":
				current, _ = xmlAttr(t, "id")
				inComment = true
			case "p":
				if v, ok := xmlAttr(t, "paraId"); ok {
					s.paraIDs[v] = true
				}
				if inComment {
					s.last[current] = tagSpan{start, end}
				}
			}
		case xml.EndElement:
			if t.Name.Local == "comment" {
				inComment = false
			}
		}
	}
	return s, nil
}

func collectParaIDs(name string, data []byte, into map[string]bool) error {
	return eachToken(name, data, func(tok xml.Token) error {
		if se, ok := tok.(xml.StartElement); ok {
			if v, ok := xmlAttr(se, "paraId"); ok {
				into[v] = true
			}
		}
		return nil
	})
}

// newParaID derives an unused paragraph id from the comment's identity.
// Paragraph ids are eight hex digits below 0x80000000.
func newParaID(c types.Comment, used map[string]bool) string {
	for n := 0; ; n++ {
		seed := fmt.Sprintf("%s\x00%s\x00%s\x00%s\x00%d", c.ID, c.Author, c.Date, c.Text, n)
		u := uuid.NewSHA1(paraIDSpace, []byte(seed))
		v := binary.BigEndian.Uint32(u[:4]) & 0x7FFFFFFF
		if v == 0 {
			continue
		}
		id := fmt.Sprintf("%08X", v)
		if !used[id] {
			used[id] = true
			return id
		}
	}
}

// validParaID reports whether id is a Word paragraph id: eight hex
// digits with a value below 0x80000000.
func validParaID(id string) bool {
	if len(id) != 8 {
		return false
	}
	v, err := strconv.ParseUint(id, 16, 32)
	return err == nil && v < 0x80000000
}

type edit struct {
	span tagSpan
	tag  []byte
}

// patchComments rewrites paragraph start tags in place, leaving every
// other byte of comments.xml untouched.
func patchComments(data []byte, scan paragraphScan, merged []types.Comment) []byte {
	var edits []edit
	root := data[scan.root.start:scan.root.end]
	if !bytes.Contains(root, []byte("xmlns:w14=")) {
		edits = append(edits, edit{scan.root, insertAttr(root, "xmlns:w14", nsW14)})
	}
	for _, c := range merged {
		sp := scan.last[c.ID]
		edits = append(edits, edit{sp, setParaID(data[sp.start:sp.end], c.ParaID)})
	}
	slices.SortFunc(edits, func(a, b edit) int { return b.span.start - a.span.start })

	out := slices.Clone(data)
	for _, e := range edits {
		out = slices.Concat(out[:e.span.start], e.tag, out[e.span.end:])
	}
	return out
}

func setParaID(tag []byte, id string) []byte {
	if loc := paraIDAttr.FindSubmatchIndex(tag); loc != nil {
		return slices.Concat(tag[:loc[2]], []byte(`"`+escape(id)+`"`), tag[loc[3]:])
	}
	return insertAttr(tag, "w14:paraId", id)
}

// insertAttr adds name="value" right after the element name of tag.
func insertAttr(tag []byte, name, value string) []byte {
	i := 1
	for i < len(tag) && !bytes.ContainsRune([]byte(" \t\r\n/>"), rune(tag[i])) {
		i++
	}
	attr := fmt.Sprintf(` %s="%s"`, name, escape(value))
	return slices.Concat(tag[:i], []byte(attr), tag[i:])
}

func escape(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// writeCompanions regenerates the companion parts and registers them in
// the content types and document relationships.
func (p *Package) writeCompanions(merged []types.Comment) error {
	byID := make(map[string]types.Comment, len(merged))
	for _, c := range merged {
		byID[c.ID] = c
	}

	var ext bytes.Buffer
	ext.WriteString(xmlHeader)
	fmt.Fprintf(&ext, `<w15:commentsEx xmlns:mc="%s" xmlns:w15="%s" mc:Ignorable="w15">`, nsMC, nsW15)
	for _, c := range merged {
		fmt.Fprintf(&ext, `<w15:commentEx w15:paraId="%s"`, escape(c.ParaID))
		if c.ParentID != "" {
			parent, ok := byID[c.ParentID]
			if !ok {
				return fmt.Errorf("comment %q: parent %q is not in %s", c.ID, c.ParentID, PartComments)
			}
			fmt.Fprintf(&ext, ` w15:paraIdParent="%s"`, escape(parent.ParaID))
		}
		done := "0"
		if c.Resolved() {
			done = "1"
		}
		fmt.Fprintf(&ext, ` w15:done="%s"/>`, done)
	}
	ext.WriteString(`</w15:commentsEx>`)
	p.SetPart(PartCommentsExtended, ext.Bytes())
	if err := p.register(PartCommentsExtended, ctCommentsExtended, relCommentsExtended); err != nil {
		return err
	}

	var ids bytes.Buffer
	n := 0
	ids.WriteString(xmlHeader)
	fmt.Fprintf(&ids, `<w16cid:commentsIds xmlns:mc="%s" xmlns:w16cid="%s" mc:Ignorable="w16cid">`, nsMC, nsW16CID)
	for _, c := range merged {
		if c.DurableID == "" {
			continue
		}
		fmt.Fprintf(&ids, `<w16cid:commentId w16cid:paraId="%s" w16cid:durableId="%s"/>`, escape(c.ParaID), escape(c.DurableID))
		n++
	}
	ids.WriteString(`</w16cid:commentsIds>`)
	if n > 0 {
		p.SetPart(PartCommentsIDs, ids.Bytes())
		if err := p.register(PartCommentsIDs, ctCommentsIDs, relCommentsIDs); err != nil {
			return err
		}
	}

	var people bytes.Buffer
	seen := make(map[string]bool)
	people.WriteString(xmlHeader)
	fmt.Fprintf(&people, `<w15:people xmlns:mc="%s" xmlns:w15="%s" mc:Ignorable="w15">`, nsMC, nsW15)
	for _, c := range merged {
		if c.PresenceProvider == "" && c.PresenceUserID == "" {
			continue
		}
		if seen[c.Author] {
			continue
		}
		seen[c.Author] = true
		fmt.Fprintf(&people, `<w15:person w15:author="%s"><w15:presenceInfo w15:providerId="%s" w15:userId="%s"/></w15:person>`,
			escape(c.Author), escape(c.PresenceProvider), escape(c.PresenceUserID))
	}
	people.WriteString(`</w15:people>`)
	if len(seen) > 0 {
		p.SetPart(PartPeople, people.Bytes())
		if err := p.register(PartPeople, ctPeople, relPeople); err != nil {
			return err
		}
	}
	return nil
}

// register adds a content type override and a document relationship for
// part unless they already exist.
func (p *Package) register(part, contentType, relType string) error {
	ct, ok := p.Part(PartContentTypes)
	if !ok {
		return fmt.Errorf("package has no %s", PartContentTypes)
	}
	partName := `PartName="/` + part + `"`
	if !bytes.Contains(ct, []byte(partName)) {
		override := fmt.Sprintf(`<Override %s ContentType="%s"/>`, partName, contentType)
		updated, err := insertBefore(ct, "</Types>", override)
		if err != nil {
			return fmt.Errorf("%s: %w", PartContentTypes, err)
		}
		p.SetPart(PartContentTypes, updated)
	}

	rels, ok := p.Part(PartDocumentRels)
	if !ok {
		return fmt.Errorf("package has no %s", PartDocumentRels)
	}
	target := part[len("word/"):]
	if bytes.Contains(rels, []byte(`Target="`+target+`"`)) {
		return nil
	}
	next := 1
	for _, m := range relIDAttr.FindAllSubmatch(rels, -1) {
		if n, err := strconv.Atoi(string(m[1])); err == nil && n >= next {
			next = n + 1
		}
	}
	rel := fmt.Sprintf(`<Relationship Id="rId%d" Type="%s" Target="%s"/>`, next, relType, target)
	updated, err := insertBefore(rels, "</Relationships>", rel)
	if err != nil {
		return fmt.Errorf("%s: %w", PartDocumentRels, err)
	}
	p.SetPart(PartDocumentRels, updated)
	return nil
}

func insertBefore(data []byte, closing, fragment string) ([]byte, error) {
	i := bytes.LastIndex(data, []byte(closing))
	if i < 0 {
		return nil, fmt.Errorf("closing %s not found", closing)
	}
	return slices.Concat(data[:i], []byte(fragment), data[i:]), nil
}
