// Copyright 2024 The SnmpKit Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/snmpkit/snmpkit"
)

// TargetsFile is the YAML targets file: a defaults block plus named
// targets, each overriding whichever fields it sets.
//
//	defaults:
//	  community: public
//	  version: 2c
//	  port: 161
//	  timeout: 2000
//	targets:
//	  core-switch:
//	    address: 10.0.0.1
//	    community: netops
//	  printer:
//	    address: 192.168.1.10
//	    version: "1"
type TargetsFile struct {
	Defaults TargetConfig            `yaml:"defaults"`
	Targets  map[string]TargetConfig `yaml:"targets"`
}

// TargetConfig describes one agent. Timeout is the per-attempt receive
// timeout in milliseconds. Zero-valued fields fall back to the defaults
// block, then to hard-coded conventions.
type TargetConfig struct {
	Address   string `yaml:"address"`
	Port      uint16 `yaml:"port"`
	Community string `yaml:"community"`
	Version   string `yaml:"version"`
	Timeout   int    `yaml:"timeout"`
}

// LoadTargets parses a targets file and resolves every target against
// the defaults block.
func LoadTargets(path string) (*TargetsFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tf TargetsFile
	if err := yaml.Unmarshal(raw, &tf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for name, target := range tf.Targets {
		tf.Targets[name] = resolveTarget(target, tf.Defaults)
	}
	return &tf, nil
}

func resolveTarget(t, def TargetConfig) TargetConfig {
	if t.Port == 0 {
		t.Port = def.Port
	}
	if t.Port == 0 {
		t.Port = 161
	}
	if t.Community == "" {
		t.Community = def.Community
	}
	if t.Community == "" {
		t.Community = "public"
	}
	if t.Version == "" {
		t.Version = def.Version
	}
	if t.Version == "" {
		t.Version = "2c"
	}
	if t.Timeout == 0 {
		t.Timeout = def.Timeout
	}
	if t.Timeout == 0 {
		t.Timeout = 2000
	}
	return t
}

// Session builds a snmpkit.Session from the resolved target.
func (t TargetConfig) Session() (*snmpkit.Session, error) {
	version, err := parseVersion(t.Version)
	if err != nil {
		return nil, err
	}
	return &snmpkit.Session{
		Target:    t.Address,
		Port:      t.Port,
		Community: t.Community,
		Version:   version,
		Timeout:   time.Duration(t.Timeout) * time.Millisecond,
	}, nil
}

func parseVersion(s string) (snmpkit.SnmpVersion, error) {
	switch s {
	case "1":
		return snmpkit.Version1, nil
	case "2c", "2":
		return snmpkit.Version2c, nil
	default:
		return 0, fmt.Errorf("unknown SNMP version %q (expected 1|2c)", s)
	}
}
