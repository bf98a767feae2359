// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package comments

import (
	"fmt"

	"github.com/pdiddy/dmc/internal/ast"
)

// Annotate writes the values in set onto the start marker of every comment
// it names. Attributes absent from set are left alone. The result counts
// only writes that changed a value, so annotating twice with the same set
// reports zero the second time.
func Annotate(doc *ast.Document, set AttributeSet) (int, error) {
	pairs, err := locatePairs(doc)
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, p := range pairs {
		if !set.Has(p.ID) {
			continue
		}
		attr := p.Start.Attr
		n := 0
		dirty := false
		for _, key := range annotatedKeys {
			v, ok := set.Lookup(p.ID, key)
			if !ok {
				continue
			}
			if key == KeyParent {
				// A legacy parentId key is rewritten as parent.
				if old, had := attr.Get(keyParentAlias); had {
					if _, both := attr.Get(KeyParent); !both {
						attr.Delete(keyParentAlias)
						attr.Set(KeyParent, v)
						dirty = true
						if old != v {
							n++
						}
						continue
					}
				}
			}
			if attr.Set(key, v) {
				n++
				dirty = true
			}
		}
		if !dirty {
			continue
		}
		if err := p.Start.Node.SetAttr(attr); err != nil {
			return 0, fmt.Errorf("annotating comment %q: %w", p.ID, err)
		}
		changed += n
	}
	return changed, nil
}

// Strip removes every transport attribute from every start marker and
// returns the number of attributes removed. End markers and all other
// attributes are untouched.
func Strip(doc *ast.Document) (int, error) {
	pairs, err := locatePairs(doc)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, p := range pairs {
		attr := p.Start.Attr
		n := 0
		for _, key := range TransportKeys {
			n += attr.Delete(key)
		}
		if n == 0 {
			continue
		}
		if err := p.Start.Node.SetAttr(attr); err != nil {
			return 0, fmt.Errorf("stripping comment %q: %w", p.ID, err)
		}
		removed += n
	}
	return removed, nil
}
