package hash

import (
	"fmt"
	"strings"
)

// ExclusionSet is a compiled, typed set of dot paths to strip before hashing.
// Paths address object members only; arrays are not traversed.
type ExclusionSet [][]string

// CompileExclusions validates dot-path nominations and compiles them into a
// typed exclusion set. Validation happens here, at load time, so hashing
// never sees a malformed nomination.
func CompileExclusions(paths []string) (ExclusionSet, error) {
	set := make(ExclusionSet, 0, len(paths))

	for _, p := range paths {
		if p == "" {
			return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
		}

		segments := strings.Split(p, ".")
		for _, seg := range segments {
			if seg == "" {
				return nil, fmt.Errorf("%w: %q has an empty segment", ErrInvalidPath, p)
			}
		}

		set = append(set, segments)
	}

	return set, nil
}

// stripVolatile removes the reserved nomination key plus all nominated and
// precompiled volatile paths from the tree.
func stripVolatile(tree any, extra ExclusionSet) (any, error) {
	root, ok := tree.(map[string]any)
	if !ok {
		return tree, nil
	}

	set := extra

	nominated, ok := root[VolatileKey]
	if ok {
		paths, err := nominatedPaths(nominated)
		if err != nil {
			return nil, err
		}

		compiled, err := CompileExclusions(paths)
		if err != nil {
			return nil, err
		}

		set = append(set, compiled...)
		delete(root, VolatileKey)
	}

	for _, path := range set {
		removePath(root, path)
	}

	return root, nil
}

func nominatedPaths(v any) ([]string, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a list of strings", ErrInvalidPath, VolatileKey)
	}

	paths := make([]string, 0, len(list))

	for _, e := range list {
		s, ok := e.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s entries must be strings, got %T", ErrInvalidPath, VolatileKey, e)
		}

		paths = append(paths, s)
	}

	return paths, nil
}

func removePath(m map[string]any, path []string) {
	if len(path) == 1 {
		delete(m, path[0])

		return
	}

	child, ok := m[path[0]].(map[string]any)
	if !ok {
		return // Missing intermediate containers resolve as a no-op.
	}

	removePath(child, path[1:])
}
