// Copyright 2022 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package authoritydiscovery

import "time"

func (w *Worker) SetTimeFunc(f func() time.Time) {
	w.now = f
}
