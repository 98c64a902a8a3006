// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logging_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ethersphere/authdisc/pkg/logging"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
)

func TestParseVerbosity(t *testing.T) {
	for _, tc := range []struct {
		in      string
		level   logrus.Level
		enabled bool
		wantErr bool
	}{
		{in: "0", enabled: false},
		{in: "silent", enabled: false},
		{in: "error", level: logrus.ErrorLevel, enabled: true},
		{in: "2", level: logrus.WarnLevel, enabled: true},
		{in: "Info", level: logrus.InfoLevel, enabled: true},
		{in: "4", level: logrus.DebugLevel, enabled: true},
		{in: "trace", level: logrus.TraceLevel, enabled: true},
		{in: "loud", wantErr: true},
	} {
		level, enabled, err := logging.ParseVerbosity(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("%q: expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: %v", tc.in, err)
		}
		if enabled != tc.enabled {
			t.Errorf("%q: got enabled %v, want %v", tc.in, enabled, tc.enabled)
		}
		if enabled && level != tc.level {
			t.Errorf("%q: got level %v, want %v", tc.in, level, tc.level)
		}
	}
}

func TestLoggerMetrics(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, logrus.DebugLevel)

	logger.Warningf("authority %s is ambiguous", "a")
	logger.Warning("again")
	logger.Debugf("rejected")
	logger.Tracef("not logged at debug level")

	if !strings.Contains(buf.String(), "authority a is ambiguous") {
		t.Errorf("log output %q does not contain the warning", buf.String())
	}

	collectors := logger.Metrics()
	if l := len(collectors); l != 5 {
		t.Fatalf("got %v collectors, want 5", l)
	}

	want := map[int]float64{
		1: 2, // warn
		3: 1, // debug
		4: 0, // trace
	}
	for i, v := range want {
		if got := testutil.ToFloat64(collectors[i]); got != v {
			t.Errorf("collector %d: got %v, want %v", i, got, v)
		}
	}
}
