// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethersphere/authdisc/cmd/authdisc/cmd"
	"gopkg.in/yaml.v2"
)

func TestPrintConfigCmd(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgFile, []byte("records-file: /etc/authdisc/records.yaml\nmax-concurrent-lookups: 4\n"), 0600); err != nil {
		t.Fatal(err)
	}

	var outputBuf bytes.Buffer
	if err := newCommand(t,
		cmd.WithArgs("printconfig", "--config", cfgFile, "--verbosity", "debug"),
		cmd.WithOutput(&outputBuf),
	).Execute(); err != nil {
		t.Fatal(err)
	}

	var got map[string]interface{}
	if err := yaml.Unmarshal(outputBuf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}

	for key, want := range map[string]interface{}{
		"records-file":           "/etc/authdisc/records.yaml",
		"max-concurrent-lookups": 4,
		"verbosity":              "debug",
		"debug-api-addr":         ":1636",
		"data-dir":               "",
		"restore-addresses":      false,
	} {
		if got[key] != want {
			t.Errorf("got %s %v, want %v", key, got[key], want)
		}
	}
}
