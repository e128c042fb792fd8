// Copyright 2024 The SnmpKit Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmpkit

import (
	"fmt"
	"math/big"
)

// FormatValue renders a varbind's value for display. It is total: every
// type the decoder can produce has a rendering, and nothing is silently
// dropped (Opaque payloads come out as hex).
func FormatValue(pdu SnmpPDU) string {
	switch pdu.Type {
	case Integer:
		return fmt.Sprintf("INTEGER: %d", pdu.Value)
	case OctetString:
		if b, ok := pdu.Value.([]byte); ok {
			return fmt.Sprintf("STRING: %q", b)
		}
		return fmt.Sprintf("STRING: %q", pdu.Value)
	case Null:
		return "NULL"
	case ObjectIdentifier:
		return fmt.Sprintf("OID: %v", pdu.Value)
	case IPAddress:
		return fmt.Sprintf("IpAddress: %v", pdu.Value)
	case Counter32:
		return fmt.Sprintf("Counter32: %d", pdu.Value)
	case Gauge32:
		return fmt.Sprintf("Gauge32: %d", pdu.Value)
	case TimeTicks:
		return fmt.Sprintf("Timeticks: %d", pdu.Value)
	case Uinteger32:
		return fmt.Sprintf("Unsigned32: %d", pdu.Value)
	case Counter64:
		return fmt.Sprintf("Counter64: %d", pdu.Value)
	case Opaque:
		if b, ok := pdu.Value.([]byte); ok {
			return fmt.Sprintf("Opaque: % X", b)
		}
		return fmt.Sprintf("Opaque: %v", pdu.Value)
	case NoSuchObject:
		return "noSuchObject"
	case NoSuchInstance:
		return "noSuchInstance"
	case EndOfMibView:
		return "endOfMibView"
	default:
		return fmt.Sprintf("%v: %v", pdu.Type, pdu.Value)
	}
}

// ToBigInt converts any numeric value a decoded varbind may carry into a
// *big.Int. Non-numeric values convert to zero.
func ToBigInt(value any) *big.Int {
	var val int64
	switch v := value.(type) {
	case int:
		val = int64(v)
	case int8:
		val = int64(v)
	case int16:
		val = int64(v)
	case int32:
		val = int64(v)
	case int64:
		val = v
	case uint:
		val = int64(v)
	case uint8:
		val = int64(v)
	case uint16:
		val = int64(v)
	case uint32:
		val = int64(v)
	case uint64:
		return new(big.Int).SetUint64(v)
	case string:
		out, ok := new(big.Int).SetString(v, 10)
		if !ok {
			return new(big.Int)
		}
		return out
	default:
		return new(big.Int)
	}
	return big.NewInt(val)
}
