package schema

import "github.com/google/uuid"

// UnboundedDepth makes GetDescendants follow the hierarchy to its leaves.
const UnboundedDepth = -1

// GetDescendants returns the transitive children of a type, ordered by id.
//
// Direct children come from the virtual_children field when it is set and
// otherwise from a scan for objects of the same variant listing obj in their
// bases. maxDepth bounds how many levels below the direct children are
// followed: 0 returns only direct children, UnboundedDepth returns all.
func (c *Catalog) GetDescendants(obj Object, maxDepth int) ([]Object, error) {
	if !c.Has(obj) {
		return nil, newError(ErrCodeItemNotFound, "cannot get descendants of %s: not in %s", obj, c)
	}
	seen := map[uuid.UUID]bool{obj.ID: true}
	result := newIDSet()
	c.collectDescendants(obj, 0, maxDepth, seen, &result)
	return c.objectsByID(result.Sorted()), nil
}

func (c *Catalog) collectDescendants(obj Object, depth, maxDepth int, seen map[uuid.UUID]bool, out *IDSet) {
	for _, child := range c.children(obj) {
		if seen[child.ID] {
			continue
		}
		seen[child.ID] = true
		*out = out.Add(child.ID)
		if maxDepth == UnboundedDepth || depth < maxDepth {
			c.collectDescendants(child, depth+1, maxDepth, seen, out)
		}
	}
}

func (c *Catalog) children(obj Object) []Object {
	if vc := c.ObjectListField(obj, FieldVirtualChildren); len(vc) > 0 {
		return vc
	}
	var out []Object
	for candidate := range c.Objects(OfVariant(obj.Variant)).All() {
		for _, base := range c.ObjectListField(candidate, FieldBases) {
			if base.ID == obj.ID {
				out = append(out, candidate)
				break
			}
		}
	}
	return out
}
