// Copyright 2024 The SnmpKit Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmpkit

import (
	"bytes"
	"fmt"
)

// SnmpVersion is the protocol version carried in every message.
type SnmpVersion uint8

const (
	Version1  SnmpVersion = 0x0
	Version2c SnmpVersion = 0x1
)

func (s SnmpVersion) String() string {
	switch s {
	case Version1:
		return "1"
	case Version2c:
		return "2c"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// PDUType discriminates the PDU variants. On the wire these are
// context-specific constructed tags (0xa0..0xa5), not the universal
// SEQUENCE tag.
type PDUType byte

const (
	Sequence       PDUType = 0x30
	GetRequest     PDUType = 0xa0
	GetNextRequest PDUType = 0xa1
	GetResponse    PDUType = 0xa2
	SetRequest     PDUType = 0xa3
	Trap           PDUType = 0xa4
	GetBulkRequest PDUType = 0xa5
)

func (t PDUType) String() string {
	switch t {
	case GetRequest:
		return "GetRequest"
	case GetNextRequest:
		return "GetNextRequest"
	case GetResponse:
		return "GetResponse"
	case SetRequest:
		return "SetRequest"
	case Trap:
		return "Trap"
	case GetBulkRequest:
		return "GetBulkRequest"
	default:
		return fmt.Sprintf("PDUType(0x%02x)", byte(t))
	}
}

// Asn1BER is the BER tag of a varbind value. Universal tags share the
// space with the SMI application-class tags (0x40..) and the v2c
// exception tags (0x80..).
type Asn1BER byte

const (
	UnknownType      Asn1BER = 0x00
	Integer          Asn1BER = 0x02
	OctetString      Asn1BER = 0x04
	Null             Asn1BER = 0x05
	ObjectIdentifier Asn1BER = 0x06
	IPAddress        Asn1BER = 0x40
	Counter32        Asn1BER = 0x41
	Gauge32          Asn1BER = 0x42
	TimeTicks        Asn1BER = 0x43
	Opaque           Asn1BER = 0x44
	Counter64        Asn1BER = 0x46
	Uinteger32       Asn1BER = 0x47
	NoSuchObject     Asn1BER = 0x80
	NoSuchInstance   Asn1BER = 0x81
	EndOfMibView     Asn1BER = 0x82
)

func (t Asn1BER) String() string {
	switch t {
	case Integer:
		return "Integer"
	case OctetString:
		return "OctetString"
	case Null:
		return "Null"
	case ObjectIdentifier:
		return "ObjectIdentifier"
	case IPAddress:
		return "IPAddress"
	case Counter32:
		return "Counter32"
	case Gauge32:
		return "Gauge32"
	case TimeTicks:
		return "TimeTicks"
	case Opaque:
		return "Opaque"
	case Counter64:
		return "Counter64"
	case Uinteger32:
		return "Uinteger32"
	case NoSuchObject:
		return "NoSuchObject"
	case NoSuchInstance:
		return "NoSuchInstance"
	case EndOfMibView:
		return "EndOfMibView"
	default:
		return fmt.Sprintf("Asn1BER(0x%02x)", byte(t))
	}
}

// Exception reports whether t is one of the v2c exception indicators
// that occupy a varbind's value slot without carrying a value.
func (t Asn1BER) Exception() bool {
	return t == NoSuchObject || t == NoSuchInstance || t == EndOfMibView
}

// SnmpPDU is one variable binding: an OID paired with a typed value. In a
// request the conventional value is Null (the agent fills it in); in a
// response Value holds the Go representation selected by Type.
type SnmpPDU struct {
	Name  Oid
	Type  Asn1BER
	Value any
}

// SnmpPacket is a whole SNMP message: version, community and one PDU.
// For GetBulkRequest the NonRepeaters and MaxRepetitions fields occupy
// the wire slots that other PDU kinds use for ErrorStatus and ErrorIndex.
type SnmpPacket struct {
	Version        SnmpVersion
	Community      string
	PDUType        PDUType
	RequestID      int32
	ErrorStatus    SNMPError
	ErrorIndex     uint32
	NonRepeaters   uint32
	MaxRepetitions uint32
	Variables      []SnmpPDU
}

// -- Marshalling Logic --------------------------------------------------------

// Marshal encodes the packet as a BER message ready to be sent as one UDP
// datagram. Only definite-length encoding is produced. Errors indicate a
// packet that violates the PDU model (out-of-range value, bad OID), not a
// runtime condition.
func (packet *SnmpPacket) Marshal() ([]byte, error) {
	buf := new(bytes.Buffer)

	// version
	versionBytes, err := marshalInt32(int(packet.Version))
	if err != nil {
		return nil, err
	}
	if err = marshalTLV(buf, byte(Integer), versionBytes); err != nil {
		return nil, err
	}

	// community
	if err = marshalTLV(buf, byte(OctetString), []byte(packet.Community)); err != nil {
		return nil, err
	}

	// pdu
	pdu, err := packet.marshalPDU()
	if err != nil {
		return nil, err
	}
	buf.Write(pdu)

	// wrap the whole message in the outer SEQUENCE
	msg := new(bytes.Buffer)
	if err = marshalTLV(msg, byte(Sequence), buf.Bytes()); err != nil {
		return nil, err
	}
	return msg.Bytes(), nil
}

// marshalPDU builds the context-tagged PDU: request-id, the two header
// integers, then the varbind list.
func (packet *SnmpPacket) marshalPDU() ([]byte, error) {
	buf := new(bytes.Buffer)

	// request id
	reqID, err := marshalInt32(int(packet.RequestID))
	if err != nil {
		return nil, err
	}
	if err = marshalTLV(buf, byte(Integer), reqID); err != nil {
		return nil, err
	}

	if packet.PDUType == GetBulkRequest {
		// non-repeaters and max-repetitions sit in the error-status and
		// error-index slots, passed through unmodified
		nonRepeaters, err2 := marshalUint32(packet.NonRepeaters)
		if err2 != nil {
			return nil, err2
		}
		if err2 = marshalTLV(buf, byte(Integer), nonRepeaters); err2 != nil {
			return nil, err2
		}
		maxRepetitions, err2 := marshalUint32(packet.MaxRepetitions)
		if err2 != nil {
			return nil, err2
		}
		if err2 = marshalTLV(buf, byte(Integer), maxRepetitions); err2 != nil {
			return nil, err2
		}
	} else {
		// error status
		errStatus, err2 := marshalInt32(int(packet.ErrorStatus))
		if err2 != nil {
			return nil, err2
		}
		if err2 = marshalTLV(buf, byte(Integer), errStatus); err2 != nil {
			return nil, err2
		}
		// error index
		errIndex, err2 := marshalUint32(packet.ErrorIndex)
		if err2 != nil {
			return nil, err2
		}
		if err2 = marshalTLV(buf, byte(Integer), errIndex); err2 != nil {
			return nil, err2
		}
	}

	// varbind list
	vbl, err := packet.marshalVBL()
	if err != nil {
		return nil, err
	}
	buf.Write(vbl)

	pdu := new(bytes.Buffer)
	if err = marshalTLV(pdu, byte(packet.PDUType), buf.Bytes()); err != nil {
		return nil, err
	}
	return pdu.Bytes(), nil
}

// marshalVBL builds the varbind list SEQUENCE.
func (packet *SnmpPacket) marshalVBL() ([]byte, error) {
	vblBuf := new(bytes.Buffer)
	for _, vb := range packet.Variables {
		b, err := marshalVarbind(vb)
		if err != nil {
			return nil, err
		}
		vblBuf.Write(b)
	}

	result := new(bytes.Buffer)
	if err := marshalTLV(result, byte(Sequence), vblBuf.Bytes()); err != nil {
		return nil, err
	}
	return result.Bytes(), nil
}

// marshalVarbind builds one varbind SEQUENCE: OID then value.
func marshalVarbind(vb SnmpPDU) ([]byte, error) {
	oid, err := marshalObjectIdentifier(vb.Name)
	if err != nil {
		return nil, err
	}

	inner := new(bytes.Buffer)
	if err = marshalTLV(inner, byte(ObjectIdentifier), oid); err != nil {
		return nil, err
	}
	if err = marshalVarbindValue(inner, vb.Type, vb.Value); err != nil {
		return nil, err
	}

	vbBuf := new(bytes.Buffer)
	if err = marshalTLV(vbBuf, byte(Sequence), inner.Bytes()); err != nil {
		return nil, err
	}
	return vbBuf.Bytes(), nil
}

// -- Unmarshalling Logic ------------------------------------------------------

// parseTLV checks the tag at the start of data against expected, parses
// the length, and returns the content octets along with the total number
// of bytes the element occupies.
func parseTLV(data []byte, expected Asn1BER, what string) ([]byte, int, error) {
	if len(data) == 0 {
		return nil, 0, fmt.Errorf("%s: %w", what, ErrZeroByteBuffer)
	}
	if Asn1BER(data[0]) != expected {
		return nil, 0, fmt.Errorf("%s: expected tag 0x%02x, got 0x%02x", what, byte(expected), data[0])
	}
	length, cursor, err := parseLength(data)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", what, err)
	}
	if length > len(data) || cursor > length {
		return nil, 0, fmt.Errorf("%s truncated (have %d need %d): %w", what, len(data), length, ErrInvalidPacketLength)
	}
	return data[cursor:length], length, nil
}

// parseTLVInt parses an INTEGER TLV and returns its value with the total
// element length.
func parseTLVInt(data []byte, what string) (int, int, error) {
	content, consumed, err := parseTLV(data, Integer, what)
	if err != nil {
		return 0, 0, err
	}
	v, err := parseInt(content)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", what, err)
	}
	return v, consumed, nil
}

// Unmarshal decodes one BER message received from an agent. All failure
// modes surface as a *DecodeError; a datagram that does not parse may
// belong to another protocol or a corrupted channel and is never silently
// ignored.
func Unmarshal(data []byte) (*SnmpPacket, error) {
	packet, err := unmarshalMessage(data)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	return packet, nil
}

func unmarshalMessage(data []byte) (*SnmpPacket, error) {
	if len(data) < 2 {
		return nil, ErrInvalidPacketLength
	}
	if PDUType(data[0]) != Sequence {
		return nil, fmt.Errorf("invalid message header 0x%02x", data[0])
	}
	msgLen, cursor, err := parseLength(data)
	if err != nil {
		return nil, err
	}
	if msgLen > len(data) {
		return nil, fmt.Errorf("message truncated (have %d need %d): %w", len(data), msgLen, ErrInvalidPacketLength)
	}
	// a datagram may carry trailing padding; everything beyond the outer
	// SEQUENCE is ignored
	data = data[:msgLen]

	response := new(SnmpPacket)

	// version
	version, consumed, err := parseTLVInt(data[cursor:], "version")
	if err != nil {
		return nil, err
	}
	cursor += consumed
	response.Version = SnmpVersion(version)

	// community
	community, consumed, err := parseTLV(data[cursor:], OctetString, "community")
	if err != nil {
		return nil, err
	}
	cursor += consumed
	response.Community = string(community)

	// pdu, dispatched on its context-specific tag
	if cursor >= len(data) {
		return nil, fmt.Errorf("missing PDU: %w", ErrInvalidPacketLength)
	}
	switch PDUType(data[cursor]) {
	case GetRequest, GetNextRequest, GetResponse, SetRequest, GetBulkRequest:
		response.PDUType = PDUType(data[cursor])
	default:
		return nil, fmt.Errorf("unknown PDU tag 0x%02x", data[cursor])
	}
	return unmarshalPDU(data[cursor:], response)
}

func unmarshalPDU(data []byte, response *SnmpPacket) (*SnmpPacket, error) {
	pduLen, cursor, err := parseLength(data)
	if err != nil {
		return nil, err
	}
	if pduLen > len(data) {
		return nil, fmt.Errorf("PDU truncated (have %d need %d): %w", len(data), pduLen, ErrInvalidPacketLength)
	}
	data = data[:pduLen]

	// request id
	requestID, consumed, err := parseTLVInt(data[cursor:], "request id")
	if err != nil {
		return nil, err
	}
	cursor += consumed
	response.RequestID = int32(requestID)

	if response.PDUType == GetBulkRequest {
		nonRepeaters, consumed, err := parseTLVInt(data[cursor:], "non repeaters")
		if err != nil {
			return nil, err
		}
		cursor += consumed
		response.NonRepeaters = uint32(nonRepeaters)

		maxRepetitions, consumed, err := parseTLVInt(data[cursor:], "max repetitions")
		if err != nil {
			return nil, err
		}
		cursor += consumed
		response.MaxRepetitions = uint32(maxRepetitions)
	} else {
		errorStatus, consumed, err := parseTLVInt(data[cursor:], "error status")
		if err != nil {
			return nil, err
		}
		cursor += consumed
		response.ErrorStatus = SNMPError(errorStatus)

		errorIndex, consumed, err := parseTLVInt(data[cursor:], "error index")
		if err != nil {
			return nil, err
		}
		cursor += consumed
		response.ErrorIndex = uint32(errorIndex)
	}

	return unmarshalVBL(data[cursor:], response)
}

// unmarshalVBL decodes the varbind list SEQUENCE into response.Variables.
func unmarshalVBL(data []byte, response *SnmpPacket) (*SnmpPacket, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("missing varbind list: %w", ErrInvalidPacketLength)
	}
	if PDUType(data[0]) != Sequence {
		return nil, fmt.Errorf("expected a sequence for the varbind list, got tag 0x%02x", data[0])
	}
	vblLen, cursor, err := parseLength(data)
	if err != nil {
		return nil, err
	}
	if vblLen > len(data) {
		return nil, fmt.Errorf("varbind list truncated (have %d need %d): %w", len(data), vblLen, ErrInvalidPacketLength)
	}

	for cursor < vblLen {
		if PDUType(data[cursor]) != Sequence {
			return nil, fmt.Errorf("expected a sequence for a varbind, got tag 0x%02x", data[cursor])
		}
		_, vbCursor, err := parseLength(data[cursor:])
		if err != nil {
			return nil, err
		}
		cursor += vbCursor

		// name
		oidContent, consumed, err := parseTLV(data[cursor:], ObjectIdentifier, "varbind name")
		if err != nil {
			return nil, err
		}
		cursor += consumed
		name, err := parseObjectIdentifier(oidContent)
		if err != nil {
			return nil, fmt.Errorf("varbind name: %w", err)
		}

		// value
		var v variable
		consumed, err = decodeValue(data[cursor:], &v)
		if err != nil {
			return nil, err
		}
		cursor += consumed

		response.Variables = append(response.Variables, SnmpPDU{Name: name, Type: v.Type, Value: v.Value})
	}
	return response, nil
}
