// Copyright 2024 The SnmpKit Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Package snmpkit is an SNMP v1 and v2c manager-side client. It speaks
// plain UDP, carries its own BER codec for the subset of ASN.1 that SNMP
// uses, and offers Get, GetNext, GetBulk, Set and a GetNext-driven
// subtree Walk.
package snmpkit

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

const (
	// maxAttempts is the total number of times a request payload is sent
	// before giving up: the initial transmission plus one retry.
	maxAttempts = 2

	// rxBufSize bounds a received datagram. Larger responses are
	// truncated by the kernel and will fail to decode.
	rxBufSize = 4096
)

// Session holds the configuration and connection state for exchanges
// with one agent. Exported fields are read when Connect is called and
// on each request; a Session serves one request at a time.
type Session struct {
	// Target is the agent's hostname or IP address.
	Target string

	// Port is the agent's UDP port.
	Port uint16

	// Community is the plain-text community string sent in every message.
	Community string

	// Version is the protocol version, Version1 or Version2c.
	Version SnmpVersion

	// Timeout bounds each receive attempt.
	Timeout time.Duration

	// Logger is used for debug output. The zero value logs nothing.
	Logger Logger

	// Conn is the transport. Connect sets it; tests may inject their own.
	Conn net.Conn

	requestID int32
}

// Default is a Session with conventional settings: port 161, community
// "public", version 2c, a two second per-attempt timeout.
var Default = &Session{
	Port:      161,
	Community: "public",
	Version:   Version2c,
	Timeout:   2 * time.Second,
}

// Connect resolves the target and opens the UDP socket. UDP being
// connectionless, a successful Connect does not imply the agent is
// reachable.
func (s *Session) Connect() error {
	addr := net.JoinHostPort(s.Target, strconv.Itoa(int(s.Port)))
	conn, err := net.DialTimeout("udp", addr, s.Timeout)
	if err != nil {
		return &TransportError{Op: "dial " + addr, Err: err}
	}
	s.Conn = conn
	return nil
}

// Close shuts the underlying socket. Safe to call on a never-connected
// session.
func (s *Session) Close() error {
	if s.Conn == nil {
		return nil
	}
	err := s.Conn.Close()
	s.Conn = nil
	return err
}

// Get performs an SNMP GET for a single OID.
func (s *Session) Get(oid string) (*SnmpPacket, error) {
	return s.request(GetRequest, oid, Null, nil)
}

// GetNext performs an SNMP GETNEXT for a single OID, returning the
// lexicographically following object.
func (s *Session) GetNext(oid string) (*SnmpPacket, error) {
	return s.request(GetNextRequest, oid, Null, nil)
}

// Set performs an SNMP SET of one varbind.
func (s *Session) Set(oid string, t Asn1BER, value any) (*SnmpPacket, error) {
	return s.request(SetRequest, oid, t, value)
}

// GetBulk performs a single SNMP GETBULK (v2c only). nonRepeaters and
// maxRepetitions are passed through to the agent unmodified; the agent
// decides how many varbinds actually come back.
func (s *Session) GetBulk(oid string, nonRepeaters, maxRepetitions uint32) (*SnmpPacket, error) {
	if s.Version == Version1 {
		return nil, &ProtocolError{Msg: "GetBulk requires version 2c"}
	}
	name, err := ParseOid(oid)
	if err != nil {
		return nil, err
	}
	packet := &SnmpPacket{
		Version:        s.Version,
		Community:      s.Community,
		PDUType:        GetBulkRequest,
		RequestID:      s.nextRequestID(),
		NonRepeaters:   nonRepeaters,
		MaxRepetitions: maxRepetitions,
		Variables:      []SnmpPDU{{Name: name, Type: Null}},
	}
	return s.send(packet)
}

// request builds and sends a single-varbind PDU of the given kind.
func (s *Session) request(pduType PDUType, oid string, t Asn1BER, value any) (*SnmpPacket, error) {
	name, err := ParseOid(oid)
	if err != nil {
		return nil, err
	}
	packet := &SnmpPacket{
		Version:   s.Version,
		Community: s.Community,
		PDUType:   pduType,
		RequestID: s.nextRequestID(),
		Variables: []SnmpPDU{{Name: name, Type: t, Value: value}},
	}
	return s.send(packet)
}

// send marshals the packet, runs the retry loop, and decodes and
// validates the response. A nonzero agent error-status does not make
// send fail: it is reported on the returned packet, via AgentError.
func (s *Session) send(packet *SnmpPacket) (*SnmpPacket, error) {
	if s.Conn == nil {
		return nil, &TransportError{Op: "send", Err: fmt.Errorf("session not connected")}
	}

	payload, err := packet.Marshal()
	if err != nil {
		return nil, err
	}

	resp, err := s.sendAndReceive(payload)
	if err != nil {
		return nil, err
	}

	result, err := Unmarshal(resp)
	if err != nil {
		return nil, err
	}
	if result.PDUType != GetResponse {
		return nil, &ProtocolError{Msg: fmt.Sprintf("expected a GetResponse, got %v", result.PDUType)}
	}
	if result.Version != packet.Version {
		return nil, &ProtocolError{Msg: fmt.Sprintf("response version %v does not match request version %v",
			result.Version, packet.Version)}
	}
	if result.RequestID != packet.RequestID {
		s.Logger.Printf("response request-id %d does not match request %d",
			result.RequestID, packet.RequestID)
	}
	return result, nil
}

// sendAndReceive transmits payload and waits for one datagram. Any
// receive failure, timeout or transient, consumes one attempt and the
// identical payload is retransmitted, request-id included. Only a send
// failure is immediately fatal.
func (s *Session) sendAndReceive(payload []byte) ([]byte, error) {
	rxBuf := make([]byte, rxBufSize)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if _, err := s.Conn.Write(payload); err != nil {
			return nil, &TransportError{Op: "send", Err: err}
		}

		if err := s.Conn.SetReadDeadline(time.Now().Add(s.Timeout)); err != nil {
			return nil, &TransportError{Op: "set deadline", Err: err}
		}
		n, err := s.Conn.Read(rxBuf)
		if err == nil {
			resp := make([]byte, n)
			copy(resp, rxBuf[:n])
			return resp, nil
		}
		lastErr = err
		s.Logger.Printf("attempt %d/%d receive failed: %v", attempt, maxAttempts, err)
	}
	if netErr, ok := lastErr.(net.Error); ok && netErr.Timeout() {
		return nil, ErrTimeout
	}
	return nil, &TransportError{Op: "receive", Err: lastErr}
}

// nextRequestID returns a fresh request-id. One session issues one
// request at a time, so a plain counter suffices.
func (s *Session) nextRequestID() int32 {
	s.requestID++
	if s.requestID <= 0 {
		s.requestID = 1
	}
	return s.requestID
}
