// Copyright 2024 The SnmpKit Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmpkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOid(t *testing.T) {
	tests := []struct {
		in   string
		want Oid
	}{
		{".1.3.6.1.2.1", Oid{1, 3, 6, 1, 2, 1}},
		{"1.3.6.1.2.1", Oid{1, 3, 6, 1, 2, 1}},
		{".1.3..6.1", Oid{1, 3, 6, 1}},    // empty segment skipped
		{".1.3.abc.6.1", Oid{1, 3, 6, 1}}, // non-numeric segment skipped
		{"1.3.6.1.4.1.4294967295", Oid{1, 3, 6, 1, 4, 1, 4294967295}},
		{"..1..", Oid{1}},
	}
	for _, test := range tests {
		got, err := ParseOid(test.in)
		require.NoError(t, err, test.in)
		assert.Equal(t, test.want, got, test.in)
	}

	for _, in := range []string{"", ".", "...", "abc", ".x.y.z"} {
		_, err := ParseOid(in)
		assert.ErrorIs(t, err, ErrEmptyOid, "%q", in)
	}
}

func TestOidString(t *testing.T) {
	assert.Equal(t, ".1.3.6.1.2.1.1.1.0", Oid{1, 3, 6, 1, 2, 1, 1, 1, 0}.String())
	assert.Equal(t, ".0", Oid{0}.String())
}

func TestOidCompare(t *testing.T) {
	tests := []struct {
		a, b Oid
		want int
	}{
		{Oid{1, 3, 6}, Oid{1, 3, 6}, 0},
		{Oid{1, 3, 6}, Oid{1, 3, 7}, -1},
		{Oid{1, 3, 7}, Oid{1, 3, 6}, 1},
		// ordering is numeric per arc, not textual
		{Oid{1, 3, 6, 1, 2}, Oid{1, 3, 6, 1, 10}, -1},
		// a prefix sorts before its extensions
		{Oid{1, 3, 6}, Oid{1, 3, 6, 1}, -1},
		{Oid{1, 3, 6, 1}, Oid{1, 3, 6}, 1},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, test.a.Compare(test.b), "%v vs %v", test.a, test.b)
	}
}

func TestOidHasPrefix(t *testing.T) {
	root := Oid{1, 3, 6, 1, 2, 1, 2, 2, 1, 6}

	// instances below the root are inside the subtree
	assert.True(t, Oid{1, 3, 6, 1, 2, 1, 2, 2, 1, 6, 1}.HasPrefix(root))
	assert.True(t, root.HasPrefix(root))

	// a sibling column is outside, even though it shares most arcs
	assert.False(t, Oid{1, 3, 6, 1, 2, 1, 2, 2, 1, 7, 1}.HasPrefix(root))

	// arc-wise prefix, not string prefix: .1.3.6.1.21 is not under .1.3.6.1.2
	assert.False(t, Oid{1, 3, 6, 1, 21}.HasPrefix(Oid{1, 3, 6, 1, 2}))

	assert.False(t, Oid{1, 3}.HasPrefix(root))
}

func TestOidSuffix(t *testing.T) {
	root := Oid{1, 3, 6, 1, 2, 1, 2, 2, 1, 6}
	assert.Equal(t, Oid{1}, Oid{1, 3, 6, 1, 2, 1, 2, 2, 1, 6, 1}.Suffix(root))
	assert.Equal(t, Oid{}, root.Suffix(root))

	// not under root: returned unchanged
	other := Oid{1, 3, 6, 1, 9}
	assert.Equal(t, other, other.Suffix(root))
}
