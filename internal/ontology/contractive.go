package ontology

import "github.com/coregraph/typegraph/internal/ident"

// CycleInNonContractiveTypeError is returned when closure finds a
// recursive data type whose self-reference is not protected by any
// structural constructor (array, object, enum). It carries the
// VersionedUrl of the first offending self-reference.
type CycleInNonContractiveTypeError struct {
	Root ident.VersionedUrl
}

func (e *CycleInNonContractiveTypeError) Error() string {
	return "ontology: non-contractive recursive type at " + e.Root.String()
}

// DataTypeResolver resolves a VersionedUrl to the DataType it names,
// for use during the contractive-type check of anyOf alias chains.
type DataTypeResolver func(ident.VersionedUrl) (DataType, error)

// CheckContractive verifies that every occurrence of root's own URL
// within its constraint tree is protected by at least one structural
// constructor (array, object), per the contractive-type constraint that
// guarantees termination of coinductive subtyping: a recursive type is
// contractive iff every self-reference is contained under a constructor
// rather than appearing as a bare anyOf/ref alias.
//
// Array and Object are treated as constructors (they protect); a Ref
// alias or an AnyOf branch that is itself a Ref are not (they pass
// through transparently, same as a union/intersection variant upstream).
func CheckContractive(root ident.VersionedUrl, dt DataType, resolve DataTypeResolver) error {
	visited := make(map[ident.VersionedUrl]struct{}, 4)
	ok, err := isContractive(root, dt.Constraints, resolve, visited)
	if err != nil {
		return err
	}
	if !ok {
		return &CycleInNonContractiveTypeError{Root: root}
	}
	return nil
}

// isContractive mirrors the upstream is_contractive_kind: it returns false
// if any path through c reaches root without passing a constructor.
// Array and Object constraints always count as protected (their nested
// schemas are independent subtrees); a bare Ref that resolves back to
// root unprotected, or an AnyOf with any such branch, is non-contractive.
func isContractive(root ident.VersionedUrl, c ValueConstraints, resolve DataTypeResolver, visited map[ident.VersionedUrl]struct{}) (bool, error) {
	switch {
	case c.Kind == KindArray || c.Kind == KindObject:
		// Protected: the recursive reference, if any, sits behind a
		// constructor, so this branch is contractive regardless of what
		// it nests.
		return true, nil
	case len(c.AnyOf) > 0:
		for _, alt := range c.AnyOf {
			contractive, err := isContractive(root, alt, resolve, visited)
			if err != nil {
				return false, err
			}
			if !contractive {
				return false, nil
			}
		}
		return true, nil
	case c.Ref != nil:
		if *c.Ref == root {
			return false, nil
		}
		if _, seen := visited[*c.Ref]; seen {
			// Inside a recursive type that isn't root: treat as
			// contractive for this path, matching upstream's "already
			// visited" short circuit.
			return true, nil
		}
		visited[*c.Ref] = struct{}{}
		defer delete(visited, *c.Ref)

		next, err := resolve(*c.Ref)
		if err != nil {
			return false, err
		}
		return isContractive(root, next.Constraints, resolve, visited)
	default:
		return true, nil
	}
}
