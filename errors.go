// Copyright 2024 The SnmpKit Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmpkit

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout is returned when both send attempts of a request elapse
	// without a response arriving.
	ErrTimeout = errors.New("request timeout (after 2 attempts)")

	// ErrOIDNotIncreasing is returned by Walk when an agent answers a
	// GetNext with a name that does not sort after the one asked about.
	// Continuing against such an agent would loop forever.
	ErrOIDNotIncreasing = errors.New("OID not increasing")
)

// TransportError wraps a socket-level failure: resolution, send or
// receive. Op names the operation that failed.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError wraps a BER-level failure while parsing a received
// datagram. What, when set, names the element being parsed.
type DecodeError struct {
	What string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.What != "" {
		return fmt.Sprintf("decode %s: %v", e.What, e.Err)
	}
	return fmt.Sprintf("decode: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ProtocolError reports a message that parsed cleanly but violates the
// request/response protocol, eg a response whose PDU is not a
// GetResponse, or an operation unsupported by the session's version.
type ProtocolError struct {
	Msg string
}

func (e *ProtocolError) Error() string { return "protocol: " + e.Msg }

// SNMPError is the error-status an agent reports in a response PDU.
type SNMPError uint8

const (
	NoError SNMPError = iota
	TooBig
	NoSuchName // v1: also signals end of MIB to GetNext
	BadValue
	ReadOnly
	GenErr
	NoAccess
	WrongType
	WrongLength
	WrongEncoding
	WrongValue
	NoCreation
	InconsistentValue
	ResourceUnavailable
	CommitFailed
	UndoFailed
	AuthorizationError
	NotWritable
	InconsistentName
)

func (s SNMPError) String() string {
	switch s {
	case NoError:
		return "noError"
	case TooBig:
		return "tooBig"
	case NoSuchName:
		return "noSuchName"
	case BadValue:
		return "badValue"
	case ReadOnly:
		return "readOnly"
	case GenErr:
		return "genErr"
	case NoAccess:
		return "noAccess"
	case WrongType:
		return "wrongType"
	case WrongLength:
		return "wrongLength"
	case WrongEncoding:
		return "wrongEncoding"
	case WrongValue:
		return "wrongValue"
	case NoCreation:
		return "noCreation"
	case InconsistentValue:
		return "inconsistentValue"
	case ResourceUnavailable:
		return "resourceUnavailable"
	case CommitFailed:
		return "commitFailed"
	case UndoFailed:
		return "undoFailed"
	case AuthorizationError:
		return "authorizationError"
	case NotWritable:
		return "notWritable"
	case InconsistentName:
		return "inconsistentName"
	default:
		return fmt.Sprintf("SNMPError(%d)", uint8(s))
	}
}

// AgentFault reports a nonzero error-status in an otherwise valid
// response. It is informational: the response still carries the
// agent's varbinds and the caller decides whether the status matters
// (a v1 GetNext past the end of the MIB reports NoSuchName, which a
// walk treats as normal termination).
type AgentFault struct {
	Status SNMPError
	Index  uint32
}

func (e *AgentFault) Error() string {
	return fmt.Sprintf("agent returned %v for varbind %d", e.Status, e.Index)
}

// AgentError returns an *AgentFault when the packet carries a nonzero
// error-status, nil otherwise.
func (packet *SnmpPacket) AgentError() error {
	if packet.ErrorStatus == NoError {
		return nil
	}
	return &AgentFault{Status: packet.ErrorStatus, Index: packet.ErrorIndex}
}
