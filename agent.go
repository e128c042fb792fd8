// Copyright 2024 The SnmpKit Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmpkit

import (
	"net"
	"sort"
	"sync"
)

// Agent is a small in-process SNMP agent. It serves Get, GetNext,
// GetBulk and Set over a UDP socket from a sorted list of registered
// objects. The package tests use it as the simulated agent; it is also
// handy for exercising managers locally.
type Agent struct {
	// Addr is the UDP listen address. Empty means 127.0.0.1 on an
	// ephemeral port; read LocalAddr after Start for the bound port.
	Addr string

	// Community is the expected community string. Requests carrying any
	// other community are dropped without a response.
	Community string

	// Logger is used for debug output. The zero value logs nothing.
	Logger Logger

	conn *net.UDPConn

	mu      sync.Mutex
	mibList []*mibEntry
}

type mibEntry struct {
	oid    Oid
	vbType Asn1BER
	get    func(Oid) any
	set    func(any)
}

// AddMib registers an object. get is called on every read; set, when
// non-nil, is called with the incoming value on SetRequest. Registering
// an already-present OID replaces it.
func (a *Agent) AddMib(oid string, vbType Asn1BER, get func(Oid) any, set func(any)) error {
	name, err := ParseOid(oid)
	if err != nil {
		return err
	}
	ent := &mibEntry{oid: name, vbType: vbType, get: get, set: set}

	a.mu.Lock()
	defer a.mu.Unlock()
	pos := sort.Search(len(a.mibList), func(i int) bool {
		return name.Compare(a.mibList[i].oid) <= 0
	})
	if pos < len(a.mibList) && name.Equal(a.mibList[pos].oid) {
		a.mibList[pos] = ent
		return nil
	}
	a.mibList = append(a.mibList, nil)
	copy(a.mibList[pos+1:], a.mibList[pos:])
	a.mibList[pos] = ent
	return nil
}

// AddStatic registers an object with a fixed value.
func (a *Agent) AddStatic(oid string, vbType Asn1BER, value any) error {
	return a.AddMib(oid, vbType, func(Oid) any { return value }, nil)
}

// Start binds the UDP socket and begins serving in a goroutine.
func (a *Agent) Start() error {
	a.Stop()
	addr := a.Addr
	if addr == "" {
		addr = "127.0.0.1:0"
	}
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return err
	}
	a.conn, err = net.ListenUDP("udp", udpAddr)
	if err != nil {
		return err
	}
	go a.serve(a.conn)
	return nil
}

// Stop closes the socket. Safe to call on a never-started agent.
func (a *Agent) Stop() {
	if a.conn == nil {
		return
	}
	a.conn.Close()
	a.conn = nil
}

// LocalAddr returns the bound UDP address, nil before Start.
func (a *Agent) LocalAddr() net.Addr {
	if a.conn == nil {
		return nil
	}
	return a.conn.LocalAddr()
}

func (a *Agent) serve(conn *net.UDPConn) {
	buf := make([]byte, rxBufSize)
	for {
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		p, err := Unmarshal(buf[:n])
		if err != nil {
			a.Logger.Printf("agent: drop undecodable packet from %v: %v", addr, err)
			continue
		}
		if p.Community != a.Community {
			a.Logger.Printf("agent: drop bad community %q from %v", p.Community, addr)
			continue
		}

		resp := a.respond(p)
		if resp == nil {
			continue
		}
		out, err := resp.Marshal()
		if err != nil {
			a.Logger.Printf("agent: encode response: %v", err)
			continue
		}
		if _, err = conn.WriteToUDP(out, addr); err != nil {
			return
		}
	}
}

// respond builds the GetResponse for one request, or nil when the
// request kind is unsupported.
func (a *Agent) respond(p *SnmpPacket) *SnmpPacket {
	resp := &SnmpPacket{
		Version:   p.Version,
		Community: p.Community,
		PDUType:   GetResponse,
		RequestID: p.RequestID,
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	switch p.PDUType {
	case GetRequest, SetRequest:
		for i, vb := range p.Variables {
			ent, ok := a.lookup(vb.Name)
			if !ok {
				a.miss(resp, vb, i, NoSuchObject)
				continue
			}
			if p.PDUType == SetRequest && ent.set != nil {
				ent.set(vb.Value)
			}
			resp.Variables = append(resp.Variables,
				SnmpPDU{Name: ent.oid, Type: ent.vbType, Value: ent.get(ent.oid)})
		}
	case GetNextRequest:
		for i, vb := range p.Variables {
			ent, ok := a.next(vb.Name)
			if !ok {
				a.miss(resp, vb, i, EndOfMibView)
				continue
			}
			resp.Variables = append(resp.Variables,
				SnmpPDU{Name: ent.oid, Type: ent.vbType, Value: ent.get(ent.oid)})
		}
	case GetBulkRequest:
		if p.Version == Version1 {
			return nil
		}
		for i, vb := range p.Variables {
			reps := int(p.MaxRepetitions)
			if uint32(i) < p.NonRepeaters {
				reps = 1
			}
			cursor := vb.Name
			for r := 0; r < reps; r++ {
				ent, ok := a.next(cursor)
				if !ok {
					resp.Variables = append(resp.Variables,
						SnmpPDU{Name: cursor, Type: EndOfMibView})
					break
				}
				resp.Variables = append(resp.Variables,
					SnmpPDU{Name: ent.oid, Type: ent.vbType, Value: ent.get(ent.oid)})
				cursor = ent.oid
			}
		}
	default:
		a.Logger.Printf("agent: drop unsupported PDU %v", p.PDUType)
		return nil
	}
	return resp
}

// miss records a lookup failure: v1 reports it in the error-status slot,
// v2c answers with an exception varbind.
func (a *Agent) miss(resp *SnmpPacket, vb SnmpPDU, index int, exception Asn1BER) {
	if resp.Version == Version1 {
		if resp.ErrorStatus == NoError {
			resp.ErrorStatus = NoSuchName
			resp.ErrorIndex = uint32(index + 1)
		}
		resp.Variables = append(resp.Variables, vb)
		return
	}
	resp.Variables = append(resp.Variables, SnmpPDU{Name: vb.Name, Type: exception})
}

// lookup finds the entry with exactly the given name. Callers hold a.mu.
func (a *Agent) lookup(name Oid) (*mibEntry, bool) {
	i := sort.Search(len(a.mibList), func(i int) bool {
		return name.Compare(a.mibList[i].oid) <= 0
	})
	if i < len(a.mibList) && name.Equal(a.mibList[i].oid) {
		return a.mibList[i], true
	}
	return nil, false
}

// next finds the first entry sorting strictly after name. Callers hold a.mu.
func (a *Agent) next(name Oid) (*mibEntry, bool) {
	i := sort.Search(len(a.mibList), func(i int) bool {
		return name.Compare(a.mibList[i].oid) < 0
	})
	if i < len(a.mibList) {
		return a.mibList[i], true
	}
	return nil, false
}
