package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// VolatileKey is the reserved metadata key under which a document nominates
// its own excludable paths.
const VolatileKey = "x-volatile"

var (
	ErrNotSerializable = errors.New("document is not serializable")
	ErrInvalidPath     = errors.New("invalid exclusion path")
)

// Option configures canonicalization.
type Option func(*options)

type options struct {
	exclusions   ExclusionSet
	keepVolatile bool
}

// WithVolatile keeps nominated volatile fields in the canonical form.
func WithVolatile() Option {
	return func(o *options) {
		o.keepVolatile = true
	}
}

// WithExclusions strips a precompiled exclusion set in addition to any paths
// the document nominates itself.
func WithExclusions(set ExclusionSet) Option {
	return func(o *options) {
		o.exclusions = set
	}
}

// Canonicalize produces the canonical serialization of doc: a JSON rendering
// with object keys sorted and array order preserved. Volatile paths nominated
// by the document are stripped unless [WithVolatile] is given.
func Canonicalize(doc any, opts ...Option) (string, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	tree, err := toTree(doc)
	if err != nil {
		return "", err
	}

	if !o.keepVolatile {
		tree, err = stripVolatile(tree, o.exclusions)
		if err != nil {
			return "", err
		}
	}

	sb := &strings.Builder{}

	err = writeCanonical(sb, tree)
	if err != nil {
		return "", err
	}

	return sb.String(), nil
}

// Sum returns the hex-encoded SHA-256 digest of the canonical serialization.
func Sum(doc any, opts ...Option) (string, error) {
	s, err := Canonicalize(doc, opts...)
	if err != nil {
		return "", err
	}

	return SumString(s), nil
}

// SumString returns the hex-encoded SHA-256 digest of a raw string.
func SumString(s string) string {
	sum := sha256.Sum256([]byte(s))

	return hex.EncodeToString(sum[:])
}

// Equal reports whether two documents have identical canonical hashes.
//
// Equal never propagates serialization failures: a document that cannot be
// canonicalized (e.g. it contains a cycle) compares unequal to everything,
// including itself. Callers doing best-effort diffing accept this precision
// tradeoff in exchange for never crashing across the comparison boundary.
func Equal(a, b any, opts ...Option) bool {
	ha, err := Sum(a, opts...)
	if err != nil {
		return false
	}

	hb, err := Sum(b, opts...)
	if err != nil {
		return false
	}

	return ha == hb
}

// toTree reduces an arbitrary document to the generic JSON object model.
// Marshaling catches cycles and other non-serializable input.
func toTree(doc any) (any, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotSerializable, err)
	}

	var v any

	err = json.Unmarshal(b, &v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotSerializable, err)
	}

	return v, nil
}

func writeCanonical(sb *strings.Builder, v any) error {
	switch tv := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(tv))
		for k := range tv {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		sb.WriteByte('{')

		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(',')
			}

			err := writeScalar(sb, k)
			if err != nil {
				return err
			}

			sb.WriteByte(':')

			err = writeCanonical(sb, tv[k])
			if err != nil {
				return err
			}
		}

		sb.WriteByte('}')

	case []any:
		sb.WriteByte('[')

		for i, e := range tv {
			if i > 0 {
				sb.WriteByte(',')
			}

			err := writeCanonical(sb, e)
			if err != nil {
				return err
			}
		}

		sb.WriteByte(']')

	default:
		return writeScalar(sb, v)
	}

	return nil
}

func writeScalar(sb *strings.Builder, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotSerializable, err)
	}

	sb.Write(b)

	return nil
}
