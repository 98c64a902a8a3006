// Copyright 2022 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package spinlock waits for a condition by polling it.
package spinlock

import (
	"errors"
	"time"
)

var ErrTimedOut = errors.New("timed out waiting for condition")

// Wait blocks until cond returns true or the timeout expires.
func Wait(timeout time.Duration, cond func() bool) error {
	return WaitWithInterval(timeout, 10*time.Millisecond, cond)
}

// WaitWithInterval is Wait with a custom polling interval.
func WaitWithInterval(timeout, interval time.Duration, cond func() bool) error {
	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrTimedOut
		}
		time.Sleep(interval)
	}
}
