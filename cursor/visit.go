package cursor

// VisitResult controls the traversal of Visit.
type VisitResult uint8

// Visit results.
const (
	// Break terminates the traversal.
	Break VisitResult = iota
	// Continue skips the children of the current node.
	Continue
	// Recurse visits the children of the current node.
	Recurse
)

// Visitor is invoked for each visited node with its parent.
type Visitor func(cur, parent Cursor) VisitResult

// Visit visits the descendants of parent in depth-first order, as directed by
// the results of visit. It reports whether the traversal was terminated by
// Break.
func Visit(parent Cursor, visit Visitor) bool {
	for _, child := range parent.Children() {
		switch visit(child, parent) {
		case Break:
			return true
		case Recurse:
			if Visit(child, visit) {
				return true
			}
		}
	}
	return false
}

// Contains reports whether the given AST tree contains a node of the specified
// kind.
func Contains(root Cursor, kind Kind) bool {
	found := false
	Visit(root, func(cur, parent Cursor) VisitResult {
		if cur.Kind() == kind {
			found = true
			return Break
		}
		return Recurse
	})
	return found
}
