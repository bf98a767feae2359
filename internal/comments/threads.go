// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package comments

import (
	"sort"

	"github.com/pdiddy/dmc/pkg/types"
)

// ThreadEntry is one comment of a thread with its reply depth, zero for
// the root.
type ThreadEntry struct {
	types.Comment `yaml:",inline"`
	Depth         int `json:"depth" yaml:"depth"`
}

// Thread is a root comment followed by its replies, depth first in
// document order.
type Thread struct {
	Root    string        `json:"root" yaml:"root"`
	Entries []ThreadEntry `json:"entries" yaml:"entries"`
}

// Threads groups list into threads ordered by their root's position.
// Replies whose parent is missing from list are treated as roots.
func Threads(list []types.Comment) []Thread {
	ids := make(map[string]bool, len(list))
	for _, c := range list {
		ids[c.ID] = true
	}
	children := make(map[string][]types.Comment)
	var roots []types.Comment
	for _, c := range list {
		if c.ParentID == "" || !ids[c.ParentID] || c.ParentID == c.ID {
			roots = append(roots, c)
			continue
		}
		children[c.ParentID] = append(children[c.ParentID], c)
	}

	threads := make([]Thread, 0, len(roots))
	for _, r := range roots {
		t := Thread{Root: r.ID}
		seen := make(map[string]bool)
		var visit func(c types.Comment, depth int)
		visit = func(c types.Comment, depth int) {
			if seen[c.ID] {
				return
			}
			seen[c.ID] = true
			t.Entries = append(t.Entries, ThreadEntry{Comment: c, Depth: depth})
			for _, child := range children[c.ID] {
				visit(child, depth+1)
			}
		}
		visit(r, 0)
		threads = append(threads, t)
	}
	return threads
}

// AuthorCount is the number of comments written by one author.
type AuthorCount struct {
	Author   string `json:"author" yaml:"author"`
	Comments int    `json:"comments" yaml:"comments"`
}

// Summary counts comments by kind.
type Summary struct {
	Comments  int           `json:"comments" yaml:"comments"`
	Threads   int           `json:"threads" yaml:"threads"`
	Replies   int           `json:"replies" yaml:"replies"`
	Resolved  int           `json:"resolved" yaml:"resolved"`
	Active    int           `json:"active" yaml:"active"`
	Anchored  int           `json:"anchored" yaml:"anchored"`
	Transport int           `json:"with_transport" yaml:"with_transport"`
	Authors   []AuthorCount `json:"authors" yaml:"authors"`
}

// Summarize counts list. Authors are ordered by count, then name.
func Summarize(list []types.Comment) Summary {
	s := Summary{Comments: len(list), Threads: len(Threads(list))}
	byAuthor := make(map[string]int)
	for _, c := range list {
		if c.IsReply() {
			s.Replies++
		}
		if c.Resolved() {
			s.Resolved++
		} else {
			s.Active++
		}
		if c.AnchorText != "" {
			s.Anchored++
		}
		if c.ParaID != "" || c.DurableID != "" || c.PresenceProvider != "" || c.PresenceUserID != "" {
			s.Transport++
		}
		byAuthor[c.Author]++
	}
	for a, n := range byAuthor {
		s.Authors = append(s.Authors, AuthorCount{Author: a, Comments: n})
	}
	sort.Slice(s.Authors, func(i, j int) bool {
		if s.Authors[i].Comments != s.Authors[j].Comments {
			return s.Authors[i].Comments > s.Authors[j].Comments
		}
		return s.Authors[i].Author < s.Authors[j].Author
	})
	return s
}
