// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package comments

import (
	"errors"
	"strconv"
	"strings"

	"github.com/pdiddy/dmc/internal/ast"
	"github.com/pdiddy/dmc/pkg/types"
)

// Extract reads every comment in doc, in start-marker order. The anchor
// text of a comment is all document text strictly between its start and
// end markers; bodies of other comments nested in the range are excluded.
// Markers must pair up and every parent must name another comment in doc.
func Extract(doc *ast.Document) ([]types.Comment, error) {
	var (
		list    []types.Comment
		index   = make(map[string]int)
		open    = make(map[string]*strings.Builder)
		decErrs []error
	)

	occs, err := scan(doc, scanHooks{
		marker: func(o Occurrence) {
			if o.Kind == MarkerEnd {
				if b, ok := open[o.ID]; ok {
					list[index[o.ID]].AnchorText = strings.TrimRight(b.String(), "\n")
					delete(open, o.ID)
				}
				return
			}
			if _, dup := index[o.ID]; dup {
				// PairMarkers reports it.
				return
			}
			c, err := commentFromMarker(o)
			if err != nil {
				decErrs = append(decErrs, err)
			}
			index[o.ID] = len(list)
			list = append(list, c)
			open[o.ID] = &strings.Builder{}
		},
		text: func(s string) {
			for _, b := range open {
				b.WriteString(s)
			}
		},
	})
	if err != nil {
		return nil, err
	}
	if err := errors.Join(decErrs...); err != nil {
		return nil, err
	}
	if _, err := PairMarkers(occs); err != nil {
		return nil, err
	}
	if err := ValidateThreads(list); err != nil {
		return nil, err
	}
	return list, nil
}

func commentFromMarker(o Occurrence) (types.Comment, error) {
	get := func(key string) string {
		v, _ := o.Attr.Get(key)
		return v
	}
	c := types.Comment{
		ID:               o.ID,
		Author:           get(KeyAuthor),
		Date:             get(KeyDate),
		ParentID:         get(KeyParent),
		ParaID:           get(KeyParaID),
		DurableID:        get(KeyDurableID),
		PresenceProvider: get(KeyPresenceProvider),
		PresenceUserID:   get(KeyPresenceUserID),
		Text:             ast.Stringify(o.Node.SpanInlines()),
	}
	if c.ParentID == "" {
		c.ParentID = get(keyParentAlias)
	}
	state, ok := types.ParseState(get(KeyState))
	if !ok {
		return c, &DecodeError{Block: o.Block, Marker: o.Position, ID: o.ID, Reason: "unknown state " + strconv.Quote(get(KeyState))}
	}
	c.State = state
	return c, nil
}

// ValidateThreads checks that every parent names another comment in list
// and that following parents never loops.
func ValidateThreads(list []types.Comment) error {
	parent := make(map[string]string, len(list))
	for _, c := range list {
		parent[c.ID] = c.ParentID
	}
	var errs []error
	for _, c := range list {
		if c.ParentID == "" {
			continue
		}
		if c.ParentID == c.ID {
			errs = append(errs, &StructureError{ID: c.ID, Reason: "comment is its own parent"})
			continue
		}
		if _, ok := parent[c.ParentID]; !ok {
			errs = append(errs, &StructureError{ID: c.ID, Reason: "parent " + strconv.Quote(c.ParentID) + " does not exist"})
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	for _, c := range list {
		seen := map[string]bool{c.ID: true}
		for p := parent[c.ID]; p != ""; p = parent[p] {
			if seen[p] {
				return &StructureError{ID: c.ID, Reason: "reply chain forms a cycle"}
			}
			seen[p] = true
		}
	}
	return nil
}

// Reconciliation correlates the comments of a parsed tree with the records
// of a DOCX package.
type Reconciliation struct {
	tree   []types.Comment
	pkg    map[string]types.Comment
	toPkg  map[string]string
	toTree map[string]string
}

// Reconcile matches tree comments to package records by id. Tree comments
// whose id is not in the package are then paired, in order, with the
// package records nobody claimed. A tree comment left without a record is
// a *StructureError.
func Reconcile(tree, pkg []types.Comment) (*Reconciliation, error) {
	r := &Reconciliation{
		tree:   tree,
		pkg:    make(map[string]types.Comment, len(pkg)),
		toPkg:  make(map[string]string, len(tree)),
		toTree: make(map[string]string, len(tree)),
	}
	for _, p := range pkg {
		r.pkg[p.ID] = p
	}

	var pending []string
	for _, c := range tree {
		if _, ok := r.pkg[c.ID]; ok {
			r.link(c.ID, c.ID)
			continue
		}
		pending = append(pending, c.ID)
	}

	var spare []string
	for _, p := range pkg {
		if _, claimed := r.toTree[p.ID]; !claimed {
			spare = append(spare, p.ID)
		}
	}
	var errs []error
	for i, id := range pending {
		if i >= len(spare) {
			errs = append(errs, &StructureError{ID: id, Reason: "no matching comment in the DOCX package"})
			continue
		}
		r.link(id, spare[i])
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Reconciliation) link(treeID, pkgID string) {
	r.toPkg[treeID] = pkgID
	r.toTree[pkgID] = treeID
}

// Inbound returns the tree comments enriched with the package's thread,
// state and transport metadata, keyed by tree id. Package parents that
// point outside the matched set are a *StructureError.
func (r *Reconciliation) Inbound() ([]types.Comment, error) {
	out := make([]types.Comment, 0, len(r.tree))
	var errs []error
	for _, c := range r.tree {
		p := r.pkg[r.toPkg[c.ID]]
		if p.ParentID != "" {
			parent, ok := r.toTree[p.ParentID]
			if !ok {
				errs = append(errs, &StructureError{ID: c.ID, Reason: "parent " + strconv.Quote(p.ParentID) + " is not anchored in the document"})
				continue
			}
			c.ParentID = parent
		}
		if p.State != "" {
			c.State = p.State
		}
		c.ParaID = preferred(p.ParaID, c.ParaID)
		c.DurableID = preferred(p.DurableID, c.DurableID)
		c.PresenceProvider = preferred(p.PresenceProvider, c.PresenceProvider)
		c.PresenceUserID = preferred(p.PresenceUserID, c.PresenceUserID)
		out = append(out, c)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := ValidateThreads(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Outbound returns the tree comments re-keyed to package ids, with parents
// translated the same way. Tree metadata wins over anything the package
// already holds.
func (r *Reconciliation) Outbound() []types.Comment {
	out := make([]types.Comment, 0, len(r.tree))
	for _, c := range r.tree {
		c.ID = r.toPkg[c.ID]
		if c.ParentID != "" {
			c.ParentID = r.toPkg[c.ParentID]
		}
		out = append(out, c)
	}
	return out
}

func preferred(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
