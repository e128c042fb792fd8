// Copyright 2024 The SnmpKit Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmpkit

import (
	"errors"
	"strconv"
	"strings"
)

// ErrEmptyOid is returned when parsing a textual OID yields no arcs at all.
var ErrEmptyOid = errors.New("oid has no numeric components")

// Oid is an object identifier: an ordered sequence of non-negative arc
// values. Oids are compared component-wise, numerically, which is not the
// same as comparing their dotted string forms (".1.3.6.1.2" sorts before
// ".1.3.6.1.10").
type Oid []uint32

// ParseOid parses a dotted textual OID such as ".1.3.6.1.2.1.1.1.0". The
// leading dot is optional. Empty and non-numeric segments are silently
// dropped; an input with no numeric segment at all is an error.
func ParseOid(s string) (Oid, error) {
	parts := strings.Split(s, ".")
	oid := make(Oid, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		n, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			continue
		}
		oid = append(oid, uint32(n))
	}
	if len(oid) == 0 {
		return nil, ErrEmptyOid
	}
	return oid, nil
}

// String renders the OID in dotted form with a leading dot, eg
// ".1.3.6.1.2.1.1.1.0".
func (o Oid) String() string {
	var b strings.Builder
	b.Grow(len(o) * 4)
	for _, arc := range o {
		b.WriteByte('.')
		b.WriteString(strconv.FormatUint(uint64(arc), 10))
	}
	return b.String()
}

// Compare returns -1, 0 or 1 as o sorts before, equal to or after other
// under component-wise lexicographic ordering.
func (o Oid) Compare(other Oid) int {
	for i := range o {
		if i >= len(other) {
			return 1
		}
		if o[i] == other[i] {
			continue
		}
		if o[i] > other[i] {
			return 1
		}
		return -1
	}
	if len(o) < len(other) {
		return -1
	}
	return 0
}

// Equal reports whether o and other have identical arcs.
func (o Oid) Equal(other Oid) bool {
	return o.Compare(other) == 0
}

// HasPrefix reports whether prefix is a proper or equal prefix of o, ie
// whether o lies within the subtree rooted at prefix.
func (o Oid) HasPrefix(prefix Oid) bool {
	if len(prefix) > len(o) {
		return false
	}
	for i := range prefix {
		if o[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Suffix returns the arcs of o beyond root. The result aliases o's backing
// array; callers that retain it across decodes should copy. If root is not
// a prefix of o, Suffix returns o unchanged.
func (o Oid) Suffix(root Oid) Oid {
	if !o.HasPrefix(root) {
		return o
	}
	return o[len(root):]
}

// Clone returns a copy of o that does not share backing storage.
func (o Oid) Clone() Oid {
	out := make(Oid, len(o))
	copy(out, o)
	return out
}
