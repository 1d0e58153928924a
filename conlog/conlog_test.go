// SPDX-License-Identifier: GPL-2.0-or-later

package conlog

import (
	"fmt"
	"log"
	"strings"
	"testing"
)

func TestHooks(t *testing.T) {
	var out, dbg strings.Builder
	SetPrintf(func(f string, v ...interface{}) { fmt.Fprintf(&out, f, v...) })
	defer SetPrintf(log.Printf)
	DPrintf("dropped %d\n", 1)
	SetDebugPrintf(func(f string, v ...interface{}) { fmt.Fprintf(&dbg, f, v...) })
	defer SetDebugPrintf(nil)
	Printf("hello %s\n", "world")
	DPrintf("debug %d\n", 2)
	if got := out.String(); got != "hello world\n" {
		t.Errorf("Printf wrote %q", got)
	}
	if got := dbg.String(); got != "debug 2\n" {
		t.Errorf("DPrintf wrote %q", got)
	}
}
