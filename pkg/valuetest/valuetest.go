// Package valuetest provides deep structural comparison for value.Value,
// used only by tests. value.Equal implements the language's own shallow
// `=` semantics (pointer identity for heap containers); this package
// instead walks into List/Map payloads, which is what a test asserting
// "the compiler produced this literal" actually wants.
package valuetest

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/xnacly/purple-garden-go/pkg/value"
)

var opts = cmp.Options{
	cmpopts.IgnoreFields(value.Header{}, "Marked", "Forward", "Next"),
	cmp.Comparer(func(a, b *value.StrObj) bool {
		if a == nil || b == nil {
			return a == b
		}
		return a.Hash == b.Hash && string(a.Bytes()) == string(b.Bytes())
	}),
}

// DeepEqual reports whether a and b have the same structural shape:
// equal scalars, and for List/Map, element-wise equal contents
// regardless of which arena or heap object backs them.
func DeepEqual(a, b value.Value) bool {
	return Diff(a, b) == ""
}

// Diff returns a human-readable structural diff, empty when a and b are
// DeepEqual.
func Diff(a, b value.Value) string {
	return cmp.Diff(a, b, opts)
}
