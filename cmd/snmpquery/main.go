// Copyright 2024 The SnmpKit Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

// Command snmpquery issues SNMP v1/v2c requests against an agent and
// prints each varbind as "OID = VALUE".
//
// Usage:
//
//	snmpquery -target 192.168.1.10 -op get .1.3.6.1.2.1.1.1.0
//	snmpquery -target 192.168.1.10 -op walk .1.3.6.1.2.1.2.2.1.6
//	snmpquery -config targets.yaml -target core-switch -op getbulk .1.3.6.1.2.1.2.2
//
// With -config, -target names an entry in the YAML targets file instead
// of an address.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/snmpkit/snmpkit"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "snmpquery: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		target     string
		port       uint
		community  string
		version    string
		timeout    time.Duration
		op         string
		nonRep     uint
		maxRep     uint
		configPath string
		logLevel   string
		logFmt     string
	)

	flag.StringVar(&target, "target", "", "Agent address, or target name when -config is given")
	flag.UintVar(&port, "port", 161, "Agent UDP port")
	flag.StringVar(&community, "community", "public", "Community string")
	flag.StringVar(&version, "version", "2c", "SNMP version: 1, 2c")
	flag.DurationVar(&timeout, "timeout", 2*time.Second, "Per-attempt receive timeout")
	flag.StringVar(&op, "op", "get", "Operation: get, getnext, getbulk, walk")
	flag.UintVar(&nonRep, "non-repeaters", 0, "GetBulk non-repeaters")
	flag.UintVar(&maxRep, "max-repetitions", 10, "GetBulk max-repetitions")
	flag.StringVar(&configPath, "config", "", "YAML targets file")
	flag.StringVar(&logLevel, "log.level", "warn", "Log level: debug, info, warn, error")
	flag.StringVar(&logFmt, "log.fmt", "text", "Log format: json, text")
	flag.Parse()

	logger, err := buildLogger(logLevel, logFmt)
	if err != nil {
		return err
	}

	if target == "" {
		return errors.New("-target is required")
	}
	if flag.NArg() != 1 {
		return errors.New("exactly one OID argument is required")
	}
	oid := flag.Arg(0)

	session, err := buildSession(target, configPath, TargetConfig{
		Port:      uint16(port),
		Community: community,
		Version:   version,
		Timeout:   int(timeout / time.Millisecond),
	})
	if err != nil {
		return err
	}

	logger.Debug("connecting", "target", session.Target, "port", session.Port,
		"version", session.Version.String())
	if err := session.Connect(); err != nil {
		return err
	}
	defer session.Close()

	if op == "walk" {
		root, err := snmpkit.ParseOid(oid)
		if err != nil {
			return err
		}
		return session.WalkFn(oid, func(entry snmpkit.WalkEntry) error {
			name := append(root.Clone(), entry.Suffix...)
			fmt.Printf("%v = %s\n", name, snmpkit.FormatValue(snmpkit.SnmpPDU{
				Name: name, Type: entry.Type, Value: entry.Value,
			}))
			return nil
		})
	}

	var result *snmpkit.SnmpPacket
	switch op {
	case "get":
		result, err = session.Get(oid)
	case "getnext":
		result, err = session.GetNext(oid)
	case "getbulk":
		result, err = session.GetBulk(oid, uint32(nonRep), uint32(maxRep))
	default:
		return fmt.Errorf("unknown operation %q (expected get|getnext|getbulk|walk)", op)
	}
	if err != nil {
		return err
	}
	if err := result.AgentError(); err != nil {
		return err
	}
	for _, vb := range result.Variables {
		fmt.Printf("%v = %s\n", vb.Name, snmpkit.FormatValue(vb))
	}
	return nil
}

// buildSession resolves the target either from the flags alone or, when
// a config file is given, from its named entry merged with the defaults.
func buildSession(target, configPath string, flags TargetConfig) (*snmpkit.Session, error) {
	if configPath == "" {
		flags.Address = target
		return flags.Session()
	}
	tf, err := LoadTargets(configPath)
	if err != nil {
		return nil, err
	}
	tc, ok := tf.Targets[target]
	if !ok {
		return nil, fmt.Errorf("target %q not found in %s", target, configPath)
	}
	return tc.Session()
}

func buildLogger(level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q (expected debug|info|warn|error)", level)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	case "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q (expected json|text)", format)
	}
	return slog.New(handler), nil
}
