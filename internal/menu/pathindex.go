package menu

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultIndexSize = 512

// PathIndex answers "which node owns this path" over the current tree,
// memoizing every distinct query (misses included) until the tree changes.
//
// Paths are compared exactly and standalone: a child's relative path is not
// joined with its parents, so siblings under different parents that share a
// relative path resolve to whichever comes first depth-first.
type PathIndex struct {
	mu   sync.Mutex
	tree []*Node
	memo *lru.Cache[string, *Node]
}

func NewPathIndex(size int) *PathIndex {
	if size <= 0 {
		size = defaultIndexSize
	}
	memo, err := lru.New[string, *Node](size)
	if err != nil {
		// lru.New only fails on a non-positive size.
		panic(err)
	}
	return &PathIndex{memo: memo}
}

// Reset replaces the indexed tree and drops every memoized answer.
func (p *PathIndex) Reset(tree []*Node) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tree = tree
	p.memo.Purge()
}

func (p *PathIndex) Clear() {
	p.Reset(nil)
}

// Find returns the first node, depth-first, whose Path equals path, or nil.
func (p *PathIndex) Find(path string) *Node {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n, ok := p.memo.Get(path); ok {
		return n
	}
	n := findPath(p.tree, path)
	p.memo.Add(path, n)
	return n
}

// Cached reports how many queries are currently memoized.
func (p *PathIndex) Cached() int {
	return p.memo.Len()
}

func findPath(list []*Node, path string) *Node {
	for _, n := range list {
		if n == nil {
			continue
		}
		if n.Path == path {
			return n
		}
		if found := findPath(n.Children, path); found != nil {
			return found
		}
	}
	return nil
}
