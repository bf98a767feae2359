// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docx

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/dmc/internal/comments"
	"github.com/pdiddy/dmc/pkg/types"
)

// xmlAttr returns the value of the first attribute with the given local
// name. Prefixes vary between producers, so only the local name is
// compared.
func xmlAttr(se xml.StartElement, local string) (string, bool) {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// eachToken feeds every token of an XML part to fn.
func eachToken(name string, data []byte, fn func(tok xml.Token) error) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("parsing %s: %w", name, err)
		}
		if err := fn(tok); err != nil {
			return err
		}
	}
}

// textCollector accumulates run text the way Word lays it out: w:t
// content, tabs and breaks, and a newline at the end of each paragraph.
type textCollector struct {
	inText bool
}

// handle returns the text tok contributes.
func (tc *textCollector) handle(tok xml.Token) string {
	switch t := tok.(type) {
	case xml.StartElement:
		switch t.Name.Local {
		case "t":
			tc.inText = true
		case "tab":
			return "\t"
		case "br", "cr":
			return "\n"
		}
	case xml.EndElement:
		switch t.Name.Local {
		case "t":
			tc.inText = false
		case "p":
			return "\n"
		}
	case xml.CharData:
		if tc.inText {
			return string(t)
		}
	}
	return ""
}

// readComments parses comments.xml. A comment's ParaID is the paraId of its
// last paragraph, which is what commentsExtended.xml refers to.
func readComments(data []byte) ([]types.Comment, error) {
	var (
		list []types.Comment
		cur  *types.Comment
		text strings.Builder
		tc   textCollector
	)
	err := eachToken(PartComments, data, func(tok xml.Token) error {
		if se, ok := tok.(xml.StartElement); ok {
			switch se.Name.Local {
			case "comment":
				id, _ := xmlAttr(se, "id")
				author, _ := xmlAttr(se, "author")
				date, _ := xmlAttr(se, "date")
				cur = &types.Comment{ID: id, Author: author, Date: date, State: types.StateActive}
				text.Reset()
				return nil
			case "p":
				if cur != nil {
					cur.ParaID, _ = xmlAttr(se, "paraId")
				}
			}
		}
		if ee, ok := tok.(xml.EndElement); ok && ee.Name.Local == "comment" && cur != nil {
			cur.Text = strings.TrimRight(text.String(), "\n")
			list = append(list, *cur)
			cur = nil
			return nil
		}
		if cur != nil {
			text.WriteString(tc.handle(tok))
		}
		return nil
	})
	return list, err
}

type commentEx struct {
	parent string
	done   bool
}

func readCommentsExtended(data []byte) (map[string]commentEx, error) {
	out := make(map[string]commentEx)
	err := eachToken(PartCommentsExtended, data, func(tok xml.Token) error {
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "commentEx" {
			return nil
		}
		para, _ := xmlAttr(se, "paraId")
		parent, _ := xmlAttr(se, "paraIdParent")
		done, _ := xmlAttr(se, "done")
		out[para] = commentEx{parent: parent, done: done == "1" || done == "true"}
		return nil
	})
	return out, err
}

func readCommentIDs(data []byte) (map[string]string, error) {
	out := make(map[string]string)
	err := eachToken(PartCommentsIDs, data, func(tok xml.Token) error {
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "commentId" {
			return nil
		}
		para, _ := xmlAttr(se, "paraId")
		durable, _ := xmlAttr(se, "durableId")
		out[para] = durable
		return nil
	})
	return out, err
}

type presence struct {
	provider string
	userID   string
}

func readPeople(data []byte) (map[string]presence, error) {
	out := make(map[string]presence)
	var author string
	err := eachToken(PartPeople, data, func(tok xml.Token) error {
		se, ok := tok.(xml.StartElement)
		if !ok {
			return nil
		}
		switch se.Name.Local {
		case "person":
			author, _ = xmlAttr(se, "author")
		case "presenceInfo":
			provider, _ := xmlAttr(se, "providerId")
			user, _ := xmlAttr(se, "userId")
			out[author] = presence{provider: provider, userID: user}
		}
		return nil
	})
	return out, err
}

// readAnchors returns the document text between each comment's range
// start and end, keyed by comment id.
func readAnchors(data []byte) (map[string]string, error) {
	var (
		open = make(map[string]*strings.Builder)
		out  = make(map[string]string)
		tc   textCollector
	)
	err := eachToken(PartDocument, data, func(tok xml.Token) error {
		if se, ok := tok.(xml.StartElement); ok {
			switch se.Name.Local {
			case "commentRangeStart":
				id, _ := xmlAttr(se, "id")
				open[id] = &strings.Builder{}
				return nil
			case "commentRangeEnd":
				id, _ := xmlAttr(se, "id")
				if b, ok := open[id]; ok {
					out[id] = strings.TrimRight(b.String(), "\n")
					delete(open, id)
				}
				return nil
			}
		}
		if s := tc.handle(tok); s != "" {
			for _, b := range open {
				b.WriteString(s)
			}
		}
		return nil
	})
	return out, err
}

// Comments returns the package's comments in comments.xml order with
// threads, resolution, durable ids, presence and anchor text filled in
// from the companion parts. A package without comments yields nil.
func (p *Package) Comments() ([]types.Comment, error) {
	data, ok := p.Part(PartComments)
	if !ok {
		return nil, nil
	}
	list, err := readComments(data)
	if err != nil {
		return nil, err
	}

	ext := map[string]commentEx{}
	if data, ok := p.Part(PartCommentsExtended); ok {
		if ext, err = readCommentsExtended(data); err != nil {
			return nil, err
		}
	}
	durable := map[string]string{}
	if data, ok := p.Part(PartCommentsIDs); ok {
		if durable, err = readCommentIDs(data); err != nil {
			return nil, err
		}
	}
	people := map[string]presence{}
	if data, ok := p.Part(PartPeople); ok {
		if people, err = readPeople(data); err != nil {
			return nil, err
		}
	}
	doc, _ := p.Part(PartDocument)
	anchors, err := readAnchors(doc)
	if err != nil {
		return nil, err
	}

	byPara := make(map[string]string, len(list))
	for _, c := range list {
		if c.ParaID != "" {
			byPara[c.ParaID] = c.ID
		}
	}

	for i := range list {
		c := &list[i]
		if e, ok := ext[c.ParaID]; ok && c.ParaID != "" {
			if e.done {
				c.State = types.StateResolved
			}
			if e.parent != "" {
				parent, ok := byPara[e.parent]
				if !ok {
					return nil, &comments.StructureError{ID: c.ID, Reason: fmt.Sprintf("parent paragraph %s not found in %s", e.parent, PartComments)}
				}
				c.ParentID = parent
			}
		}
		if c.ParaID != "" {
			c.DurableID = durable[c.ParaID]
		}
		if pr, ok := people[c.Author]; ok {
			c.PresenceProvider = pr.provider
			c.PresenceUserID = pr.userID
		}
		c.AnchorText = anchors[c.ID]
	}
	return list, nil
}
