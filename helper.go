// Copyright 2024 The SnmpKit Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmpkit

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"net"
)

// variable is the intermediate result of decodeValue().
type variable struct {
	Value any
	Type  Asn1BER
}

// low-level codec error modes
var (
	ErrBase128IntegerTooLarge  = errors.New("base 128 integer too large")
	ErrBase128IntegerTruncated = errors.New("base 128 integer truncated")
	ErrIndefiniteLength        = errors.New("indefinite length encoding is not permitted in SNMP")
	ErrIntegerTooLarge         = errors.New("integer too large")
	ErrInvalidOidLength        = errors.New("invalid OID length")
	ErrInvalidPacketLength     = errors.New("invalid packet length")
	ErrZeroByteBuffer          = errors.New("zero byte buffer")
	ErrZeroLenInteger          = errors.New("zero length integer")
)

// -- helper functions (mostly) in alphabetical order --------------------------

// appendBase128Int appends a base-128 encoded integer to the given slice,
// continuation bit set on all but the final octet. Returns the extended
// slice.
func appendBase128Int(dst []byte, n int64) []byte {
	if n == 0 {
		return append(dst, 0)
	}

	l := 0
	for i := n; i > 0; i >>= 7 {
		l++
	}

	for i := l - 1; i >= 0; i-- {
		o := byte(n>>uint(i*7)) & 0x7f
		if i != 0 {
			o |= 0x80
		}
		dst = append(dst, o)
	}

	return dst
}

/*
	snmp Integer32 and INTEGER:
	-2^31 and 2^31-1 inclusive (-2147483648 to 2147483647 decimal)

	versus:

	snmp Counter32, Gauge32, TimeTicks, Unsigned32:
	non-negative integer, maximum value of 2^32-1 (4294967295 decimal)
*/

// marshalInt32 builds the minimal two's-complement content octets of a
// signed 32 bit int.
func marshalInt32(value int) ([]byte, error) {
	if value < math.MinInt32 || value > math.MaxInt32 {
		return nil, fmt.Errorf("unable to marshal: %d overflows int32", value)
	}
	const mask1 uint32 = 0xFFFFFF80
	const mask2 uint32 = 0xFFFF8000
	const mask3 uint32 = 0xFF800000
	// ITU-T Rec. X.690 (2002) 8.3.2
	// If the contents octets of an integer value encoding consist of more than
	// one octet, then the bits of the first octet and bit 8 of the second octet:
	//  a) shall not all be ones; and
	//  b) shall not all be zero
	val := uint32(value)
	switch {
	case val&mask1 == 0 || val&mask1 == mask1:
		return []byte{byte(val)}, nil
	case val&mask2 == 0 || val&mask2 == mask2:
		return []byte{byte(val >> 8), byte(val)}, nil
	case val&mask3 == 0 || val&mask3 == mask3:
		return []byte{byte(val >> 16), byte(val >> 8), byte(val)}, nil
	default:
		return []byte{byte(val >> 24), byte(val >> 16), byte(val >> 8), byte(val)}, nil
	}
}

// marshalUint32 builds the minimal content octets of an unsigned 32 bit
// int, prepending a 0x00 guard byte when the high bit of the first content
// octet is set. Used for Counter32, Gauge32, TimeTicks and Unsigned32.
func marshalUint32(v any) ([]byte, error) {
	var source uint32
	switch val := v.(type) {
	case uint32:
		source = val
	case uint:
		if uint64(val) > math.MaxUint32 {
			return nil, fmt.Errorf("unable to marshal: %d overflows uint32", val)
		}
		source = uint32(val)
	case uint8:
		source = uint32(val)
	case int:
		if val < 0 || int64(val) > math.MaxUint32 {
			return nil, fmt.Errorf("unable to marshal: %d overflows uint32", val)
		}
		source = uint32(val)
	default:
		return nil, fmt.Errorf("unable to marshal %T to uint32", v)
	}
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, source)
	var i int
	for i = 0; i < 3; i++ {
		if buf[i] != 0 {
			break
		}
	}
	buf = buf[i:]
	if buf[0]&0x80 > 0 {
		buf = append([]byte{0}, buf...)
	}
	return buf, nil
}

// marshalUint64 is marshalUint32's Counter64 counterpart.
func marshalUint64(v any) ([]byte, error) {
	var source uint64
	switch val := v.(type) {
	case uint64:
		source = val
	case uint32:
		source = uint64(val)
	case uint:
		source = uint64(val)
	default:
		return nil, fmt.Errorf("unable to marshal %T to uint64", v)
	}
	bs := make([]byte, 8)
	binary.BigEndian.PutUint64(bs, source)

	trimmed := bytes.TrimLeft(bs, "\x00")
	if len(trimmed) == 0 {
		return []byte{0}, nil
	}
	if trimmed[0]&0x80 > 0 {
		trimmed = append([]byte{0}, trimmed...)
	}
	return trimmed, nil
}

// marshalLength builds a byte representation of length
//
// http://luca.ntop.org/Teaching/Appunti/asn1.html
//
// Length octets. There are two forms: short (for lengths between 0 and 127),
// and long definite (for lengths between 0 and 2^1008 -1).
//
//   - Short form. One octet. Bit 8 has value "0" and bits 7-1 give the length.
//   - Long form. Two to 127 octets. Bit 8 of first octet has value "1" and bits
//     7-1 give the number of additional length octets. Second and following
//     octets give the length, base 256, most significant digit first.
func marshalLength(length int) ([]byte, error) {
	if length < 0 {
		return nil, fmt.Errorf("length must be >= 0")
	}
	if length <= 127 {
		return []byte{byte(length)}, nil
	}

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(length))

	start := 0
	for start < 8 && buf[start] == 0 {
		start++
	}

	numBytes := 8 - start
	result := make([]byte, 1+numBytes)
	result[0] = byte(128 | numBytes)
	copy(result[1:], buf[start:])
	return result, nil
}

// marshalTLV writes a BER TLV (tag-length-value) to buf.
func marshalTLV(buf *bytes.Buffer, tag byte, value []byte) error {
	length, err := marshalLength(len(value))
	if err != nil {
		return err
	}
	buf.WriteByte(tag)
	buf.Write(length)
	buf.Write(value)
	return nil
}

// marshalObjectIdentifier builds the content octets of an OBJECT
// IDENTIFIER: the first two arcs packed as 40*X+Y, every following arc
// base-128 encoded.
func marshalObjectIdentifier(oid Oid) ([]byte, error) {
	if len(oid) == 0 {
		return nil, ErrEmptyOid
	}
	first := int64(oid[0])
	if first > 2 {
		return nil, fmt.Errorf("unable to marshal OID: first arc %d out of range", oid[0])
	}
	var second int64
	if len(oid) > 1 {
		second = int64(oid[1])
		if first < 2 && second >= 40 {
			return nil, fmt.Errorf("unable to marshal OID: second arc %d out of range", oid[1])
		}
	}

	out := make([]byte, 0, len(oid)+1)
	out = appendBase128Int(out, first*40+second)
	for _, arc := range oid[2:] {
		out = appendBase128Int(out, int64(arc))
	}
	return out, nil
}

// parseBase128Uint32 parses a base-128 encoded unsigned integer from the
// given offset in the given byte slice. Returns the value and the new
// offset.
func parseBase128Uint32(data []byte, initOffset int) (uint32, int, error) {
	var ret uint64
	offset := initOffset
	for offset < len(data) {
		b := data[offset]
		offset++
		ret = (ret << 7) | uint64(b&0x7f)
		if ret > math.MaxUint32 {
			return 0, 0, ErrBase128IntegerTooLarge
		}
		if b&0x80 == 0 {
			return uint32(ret), offset, nil
		}
	}
	return 0, 0, ErrBase128IntegerTruncated
}

// parseInt64 treats the given bytes as a big-endian, signed integer and
// returns the result, sign-extending from the leading content octet.
func parseInt64(data []byte) (int64, error) {
	switch {
	case len(data) == 0:
		// X.690 8.3.1: the contents octets of an integer consist of one
		// or more octets.
		return 0, ErrZeroLenInteger
	case len(data) > 8:
		// We'll overflow an int64 in this case.
		return 0, ErrIntegerTooLarge
	}
	var ret int64
	for _, b := range data {
		ret <<= 8
		ret |= int64(b)
	}
	// Shift up and down in order to sign extend the result.
	ret <<= 64 - uint8(len(data))*8
	ret >>= 64 - uint8(len(data))*8
	return ret, nil
}

// parseInt treats the given bytes as a big-endian, signed integer and
// returns the result.
func parseInt(data []byte) (int, error) {
	ret64, err := parseInt64(data)
	if err != nil {
		return 0, err
	}
	if ret64 != int64(int(ret64)) {
		return 0, ErrIntegerTooLarge
	}
	return int(ret64), nil
}

// parseLength parses a BER length field and returns the total element
// length (header included) along with the cursor to the first content
// octet. Both short and long definite forms are accepted; the indefinite
// form is rejected per RFC 3417 section 8.
func parseLength(data []byte) (int, int, error) {
	var cursor, length int
	switch {
	case len(data) < 2:
		// handle null octet strings ie "0x04 0x00"
		cursor = len(data)
		length = len(data)
	case int(data[1]) <= 127:
		length = int(data[1])
		length += 2
		cursor += 2
	case data[1] == 0x80:
		return 0, 0, ErrIndefiniteLength
	default:
		numOctets := int(data[1]) & 127
		for i := 0; i < numOctets; i++ {
			length <<= 8
			if len(data) < 2+i+1 {
				return 0, 0, ErrInvalidPacketLength
			}
			length += int(data[2+i])
			if length < 0 {
				// overflow
				return 0, 0, ErrInvalidPacketLength
			}
		}
		length += 2 + numOctets
		cursor += 2 + numOctets
	}
	if length < 0 {
		return 0, 0, ErrInvalidPacketLength
	}
	return length, cursor, nil
}

// parseObjectIdentifier parses OBJECT IDENTIFIER content octets. The first
// sub-identifier packs two arcs: X = min(v/40, 2), Y = v - 40*X.
func parseObjectIdentifier(src []byte) (Oid, error) {
	if len(src) == 0 {
		return nil, ErrInvalidOidLength
	}

	out := make(Oid, 0, len(src)+1)

	v, offset, err := parseBase128Uint32(src, 0)
	if err != nil {
		return nil, err
	}
	first := v / 40
	if first > 2 {
		first = 2
	}
	out = append(out, first, v-40*first)

	for offset < len(src) {
		v, offset, err = parseBase128Uint32(src, offset)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// parseUint64 treats the given bytes as a big-endian, unsigned integer and
// returns the result.
func parseUint64(data []byte) (uint64, error) {
	var ret uint64
	if len(data) > 9 || (len(data) > 8 && data[0] != 0x0) {
		// We'll overflow a uint64 in this case.
		return 0, ErrIntegerTooLarge
	}
	for _, b := range data {
		ret <<= 8
		ret |= uint64(b)
	}
	return ret, nil
}

// parseUint32 treats the given bytes as a big-endian, unsigned integer and
// returns the result.
func parseUint32(data []byte) (uint32, error) {
	ret, err := parseUint64(data)
	if err != nil {
		return 0, err
	}
	if ret > math.MaxUint32 {
		return 0, ErrIntegerTooLarge
	}
	return uint32(ret), nil
}

// decodeValue decodes the BER value TLV at the start of data into retVal,
// returning the number of bytes consumed. The tag selects the decoded Go
// type; type identity is preserved exactly (an INTEGER never decodes as a
// Counter32 or vice versa). Decoded byte slices are copies and do not
// alias data.
func decodeValue(data []byte, retVal *variable) (int, error) {
	if len(data) == 0 {
		return 0, ErrZeroByteBuffer
	}

	length, cursor, err := parseLength(data)
	if err != nil {
		return 0, err
	}
	if length > len(data) {
		return 0, fmt.Errorf("value truncated (have %d need %d): %w", len(data), length, ErrInvalidPacketLength)
	}
	content := data[cursor:length]

	switch Asn1BER(data[0]) {
	case Integer:
		// 0x02. signed
		ret, err := parseInt(content)
		if err != nil {
			return 0, fmt.Errorf("bytes: % x err: %w", data[:length], err)
		}
		retVal.Type = Integer
		retVal.Value = ret
	case OctetString:
		// 0x04
		retVal.Type = OctetString
		retVal.Value = append([]byte(nil), content...)
	case Null:
		// 0x05
		retVal.Type = Null
		retVal.Value = nil
	case ObjectIdentifier:
		// 0x06
		oid, err := parseObjectIdentifier(content)
		if err != nil {
			return 0, fmt.Errorf("error parsing OID value: %w", err)
		}
		retVal.Type = ObjectIdentifier
		retVal.Value = oid
	case IPAddress:
		// 0x40
		retVal.Type = IPAddress
		switch len(content) {
		case 0: // real life, buggy devices returning bad data
			retVal.Value = nil
		case 4: // IPv4
			retVal.Value = net.IP(content).String()
		case 16: // IPv6
			d := make(net.IP, 16)
			copy(d, content)
			retVal.Value = d.String()
		default:
			return 0, fmt.Errorf("got ipaddress len %d, expected 4 or 16", len(content))
		}
	case Counter32:
		// 0x41. unsigned
		ret, err := parseUint32(content)
		if err != nil {
			return 0, fmt.Errorf("bytes: % x err: %w", data[:length], err)
		}
		retVal.Type = Counter32
		retVal.Value = ret
	case Gauge32:
		// 0x42. unsigned
		ret, err := parseUint32(content)
		if err != nil {
			return 0, fmt.Errorf("bytes: % x err: %w", data[:length], err)
		}
		retVal.Type = Gauge32
		retVal.Value = ret
	case TimeTicks:
		// 0x43
		ret, err := parseUint32(content)
		if err != nil {
			return 0, fmt.Errorf("bytes: % x err: %w", data[:length], err)
		}
		retVal.Type = TimeTicks
		retVal.Value = ret
	case Opaque:
		// 0x44
		retVal.Type = Opaque
		retVal.Value = append([]byte(nil), content...)
	case Counter64:
		// 0x46
		ret, err := parseUint64(content)
		if err != nil {
			return 0, fmt.Errorf("bytes: % x err: %w", data[:length], err)
		}
		retVal.Type = Counter64
		retVal.Value = ret
	case Uinteger32:
		// 0x47
		ret, err := parseUint32(content)
		if err != nil {
			return 0, fmt.Errorf("bytes: % x err: %w", data[:length], err)
		}
		retVal.Type = Uinteger32
		retVal.Value = ret
	case NoSuchObject:
		// 0x80. zero-length v2c exception occupying the value slot
		retVal.Type = NoSuchObject
		retVal.Value = nil
	case NoSuchInstance:
		// 0x81
		retVal.Type = NoSuchInstance
		retVal.Value = nil
	case EndOfMibView:
		// 0x82
		retVal.Type = EndOfMibView
		retVal.Value = nil
	default:
		return 0, fmt.Errorf("value tag 0x%02x is not valid in a varbind", data[0])
	}
	return length, nil
}

// marshalVarbindValue appends the full value TLV for a varbind to buf.
// The inverse of decodeValue.
func marshalVarbindValue(buf *bytes.Buffer, vbType Asn1BER, value any) error {
	switch vbType {
	case Null, NoSuchObject, NoSuchInstance, EndOfMibView:
		buf.Write([]byte{byte(vbType), 0x00})
		return nil
	case Integer:
		var iv int
		switch v := value.(type) {
		case int:
			iv = v
		case int32:
			iv = int(v)
		case int64:
			if v < math.MinInt32 || v > math.MaxInt32 {
				return fmt.Errorf("unable to marshal: %d overflows int32", v)
			}
			iv = int(v)
		default:
			return fmt.Errorf("unable to marshal %T as INTEGER", value)
		}
		content, err := marshalInt32(iv)
		if err != nil {
			return err
		}
		return marshalTLV(buf, byte(Integer), content)
	case OctetString:
		var content []byte
		switch v := value.(type) {
		case []byte:
			content = v
		case string:
			content = []byte(v)
		default:
			return fmt.Errorf("unable to marshal %T as OCTET STRING", value)
		}
		return marshalTLV(buf, byte(OctetString), content)
	case ObjectIdentifier:
		var oid Oid
		switch v := value.(type) {
		case Oid:
			oid = v
		case string:
			var err error
			if oid, err = ParseOid(v); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unable to marshal %T as OBJECT IDENTIFIER", value)
		}
		content, err := marshalObjectIdentifier(oid)
		if err != nil {
			return err
		}
		return marshalTLV(buf, byte(ObjectIdentifier), content)
	case IPAddress:
		var ip net.IP
		switch v := value.(type) {
		case net.IP:
			ip = v
		case string:
			ip = net.ParseIP(v)
		case []byte:
			ip = net.IP(v)
		default:
			return fmt.Errorf("unable to marshal %T as IpAddress", value)
		}
		ip4 := ip.To4()
		if ip4 == nil {
			return fmt.Errorf("unable to marshal %v as IpAddress", value)
		}
		return marshalTLV(buf, byte(IPAddress), ip4)
	case Counter32, Gauge32, TimeTicks, Uinteger32:
		content, err := marshalUint32(value)
		if err != nil {
			return err
		}
		return marshalTLV(buf, byte(vbType), content)
	case Counter64:
		content, err := marshalUint64(value)
		if err != nil {
			return err
		}
		return marshalTLV(buf, byte(Counter64), content)
	case Opaque:
		content, ok := value.([]byte)
		if !ok {
			return fmt.Errorf("unable to marshal %T as Opaque", value)
		}
		return marshalTLV(buf, byte(Opaque), content)
	default:
		return fmt.Errorf("unable to marshal value: unknown BER type 0x%02x", byte(vbType))
	}
}
