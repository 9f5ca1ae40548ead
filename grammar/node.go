package grammar

// Span is a half-open byte range [Start, End) into the parsed source.
type Span struct {
	Start, End int
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// Node is a successful rule match.
// Children are ordered by position and lie inside the parent's span.
type Node struct {
	Rule     Rule
	Span     Span
	Children []*Node

	src string
}

// Text returns the exact source text matched by the node.
func (n *Node) Text() string {
	if n == nil {
		return ""
	}
	return n.src[n.Span.Start:n.Span.End]
}

// Child returns the first direct child matched by rule r or nil.
func (n *Node) Child(r Rule) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Rule == r {
			return c
		}
	}
	return nil
}

// ChildrenOf returns all direct children matched by rule r.
func (n *Node) ChildrenOf(r Rule) []*Node {
	if n == nil {
		return nil
	}
	var res []*Node
	for _, c := range n.Children {
		if c.Rule == r {
			res = append(res, c)
		}
	}
	return res
}

// Walk calls visit for n and its descendants in depth-first order.
// Returning false from visit skips the node's children.
func (n *Node) Walk(visit func(n *Node, depth int) bool) {
	n.walk(visit, 0)
}

func (n *Node) walk(visit func(*Node, int) bool, depth int) {
	if n == nil || !visit(n, depth) {
		return
	}
	for _, c := range n.Children {
		c.walk(visit, depth+1)
	}
}

// BookNode is a node verified to be produced by the Book rule.
// The zero value holds no node; field accessors then return nil.
type BookNode struct {
	node *Node
}

// AsBook verifies that n is a book node.
func AsBook(n *Node) (BookNode, bool) {
	if n == nil || n.Rule != Book {
		return BookNode{}, false
	}
	return BookNode{n}, true
}

// Node returns the underlying parse node.
func (b BookNode) Node() *Node {
	return b.node
}

// Field returns the book's field node for one of Title, Authors, Genres,
// PublicationYear, Rating or Price.
func (b BookNode) Field(r Rule) *Node {
	return b.node.Child(r)
}
