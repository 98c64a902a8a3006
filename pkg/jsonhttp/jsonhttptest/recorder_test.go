// Copyright 2022 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jsonhttptest_test

import (
	"fmt"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// failures are the messages reported through testing.TB by a helper.
type failures struct {
	Errors []string
	Fatal  string
}

// recorder is a testing.TB that records failures instead of failing the
// test. Fatal stops the calling goroutine like the testing package does.
type recorder struct {
	testing.TB
	helper bool
	got    failures
}

func (r *recorder) Helper() { r.helper = true }

func (r *recorder) Errorf(format string, args ...interface{}) {
	r.got.Errors = append(r.got.Errors, fmt.Sprintf(format, args...))
}

func (r *recorder) Fatal(args ...interface{}) {
	r.got.Fatal = fmt.Sprint(args...)
	runtime.Goexit()
}

// expectFailures runs f in its own goroutine with a recorder and
// compares the recorded failures with want.
func expectFailures(t *testing.T, want failures, f func(r *recorder)) {
	t.Helper()

	r := &recorder{TB: t}
	done := make(chan struct{})
	go func() {
		defer close(done)
		f(r)
	}()
	<-done

	if !r.helper {
		t.Error("not marked as a helper")
	}
	if diff := cmp.Diff(want, r.got, cmpopts.SortSlices(func(a, b string) bool { return a < b }), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("failures mismatch (-want +got):\n%s", diff)
	}
}
