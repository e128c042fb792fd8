// Copyright 2024 The SnmpKit Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmpkit

import (
	"errors"
	"fmt"
)

// WalkEntry is one object collected by a walk. Suffix holds the arcs of
// the object's name beyond the walk root, so walking
// .1.3.6.1.2.1.2.2.1.6 yields suffixes like .1, .2 rather than the full
// instance names.
type WalkEntry struct {
	Suffix Oid
	Type   Asn1BER
	Value  any
}

// WalkFunc receives each entry in turn. Returning a non-nil error stops
// the walk and propagates the error to the caller.
type WalkFunc func(entry WalkEntry) error

// Walk collects the entire subtree rooted at root, in the agent's
// increasing OID order, by repeated GetNext. When the walk fails partway
// the entries gathered so far are returned alongside the error.
func (s *Session) Walk(root string) ([]WalkEntry, error) {
	var results []WalkEntry
	err := s.WalkFn(root, func(entry WalkEntry) error {
		results = append(results, entry)
		return nil
	})
	return results, err
}

// WalkFn streams the subtree rooted at root through fn, one entry per
// GetNext step. The walk ends when the agent leaves the subtree, reports
// EndOfMibView (v2c) or NoSuchName (v1, the legitimate end-of-MIB signal
// for GetNext), or when any step fails. An agent that answers with a
// name not strictly greater than the one asked about terminates the walk
// with ErrOIDNotIncreasing.
func (s *Session) WalkFn(root string, fn WalkFunc) error {
	rootOid, err := ParseOid(root)
	if err != nil {
		return err
	}

	current := rootOid
	for {
		resp, err := s.GetNext(current.String())
		if err != nil {
			return err
		}
		if fault := resp.AgentError(); fault != nil {
			var af *AgentFault
			if s.Version == Version1 && errors.As(fault, &af) && af.Status == NoSuchName {
				return nil
			}
			return fault
		}
		if len(resp.Variables) == 0 {
			return &ProtocolError{Msg: "GetNext response carries no varbind"}
		}

		vb := resp.Variables[0]
		if vb.Type == EndOfMibView {
			return nil
		}
		if !vb.Name.HasPrefix(rootOid) {
			return nil
		}
		if vb.Name.Compare(current) <= 0 {
			return fmt.Errorf("%w: asked after %v, agent answered %v",
				ErrOIDNotIncreasing, current, vb.Name)
		}

		entry := WalkEntry{
			Suffix: vb.Name.Suffix(rootOid).Clone(),
			Type:   vb.Type,
			Value:  vb.Value,
		}
		if err := fn(entry); err != nil {
			return err
		}
		current = vb.Name
	}
}
