// SPDX-License-Identifier: GPL-2.0-or-later

// Package conlog routes user facing output. Printf goes to the standard
// logger unless replaced; DPrintf is silent until a debug hook is set.
package conlog

import (
	"log"
	"sync"
)

var (
	mutex sync.RWMutex
	p     = log.Printf
	dp    func(string, ...interface{})
)

func SetPrintf(f func(string, ...interface{})) {
	mutex.Lock()
	defer mutex.Unlock()
	p = f
}

// SetDebugPrintf enables debug output. A nil f disables it again.
func SetDebugPrintf(f func(string, ...interface{})) {
	mutex.Lock()
	defer mutex.Unlock()
	dp = f
}

func Printf(format string, v ...interface{}) {
	mutex.RLock()
	f := p
	mutex.RUnlock()
	if f != nil {
		f(format, v...)
	}
}

func DPrintf(format string, v ...interface{}) {
	mutex.RLock()
	f := dp
	mutex.RUnlock()
	if f != nil {
		f(format, v...)
	}
}
