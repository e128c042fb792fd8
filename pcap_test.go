// Copyright 2024 The SnmpKit Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmpkit

import (
	"flag"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

var pcapDir = flag.String("pcap", "", "dir to dump encoded messages as pcap files, no pcaps made if blank.")

// TestPcapDump re-encodes the wire fixtures and, when -pcap is given,
// writes each encoding out as a pcap so it can be eyeballed in wireshark
// next to the original capture.
func TestPcapDump(t *testing.T) {
	if *pcapDir == "" {
		t.Skip("no -pcap dir given")
	}
	dir := filepath.Join(*pcapDir, t.Name())
	if err := os.MkdirAll(dir, 0777); err != nil {
		t.Fatalf("error creating pcap dir: %s", err)
	}

	for _, test := range testsEnmarshal {
		packet := &SnmpPacket{
			Version:   test.version,
			Community: test.community,
			PDUType:   test.pduType,
			RequestID: test.requestID,
			Variables: test.varbinds,
		}
		got, err := packet.Marshal()
		if err != nil {
			t.Fatal(err)
		}
		savePcap(t, filepath.Join(dir, test.funcName), test.goodBytes(), got)
	}
}

func writePcap(fn string, payload []byte) error {
	fn += ".pcap"

	f, err := os.OpenFile(fn, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0777)
	if err != nil {
		return err
	}
	defer f.Close()

	l3 := &layers.IPv4{
		SrcIP:    net.ParseIP("192.168.2.1"),
		DstIP:    net.ParseIP("192.168.2.2"),
		Version:  4,
		Protocol: layers.IPProtocolUDP,
	}
	l4 := &layers.UDP{
		SrcPort: 161,
		DstPort: 161,
	}
	err = l4.SetNetworkLayerForChecksum(l3)
	if err != nil {
		return err
	}

	buf := gopacket.NewSerializeBuffer()
	err = gopacket.SerializeLayers(
		buf,
		gopacket.SerializeOptions{
			ComputeChecksums: true,
			FixLengths:       true,
		},
		l3,
		l4,
		gopacket.Payload(payload),
	)
	if err != nil {
		return err
	}

	pkt := gopacket.NewPacket(buf.Bytes(),
		layers.LinkTypeIPv4,
		gopacket.Default)

	w := pcapgo.NewWriter(f)
	err = w.WriteFileHeader(1600, layers.LinkTypeIPv4)
	if err != nil {
		return err
	}

	return w.WritePacket(gopacket.CaptureInfo{
		Timestamp:     time.Now(),
		CaptureLength: len(pkt.Data()),
		Length:        len(pkt.Data()),
	}, pkt.Data())
}

func savePcap(t *testing.T, fp string, exp, got []byte) {
	if err := writePcap(fp+"_exp", exp); err != nil {
		t.Logf("error saving exp pcap: %s", err.Error())
	}
	if err := writePcap(fp+"_got", got); err != nil {
		t.Logf("error saving got pcap: %s", err.Error())
	}
}
