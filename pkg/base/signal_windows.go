// Copyright 2024, Chef.  All rights reserved.
// https://github.com/q191201771/dvbscan
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

//go:build !linux && !darwin && !netbsd && !freebsd && !openbsd && !dragonfly
// +build !linux,!darwin,!netbsd,!freebsd,!openbsd,!dragonfly

package base

import (
	"os"
	"os/signal"
)

func RunSignalHandler(cb func()) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go func() {
		s := <-c
		Log.Infof("recv signal. s=%+v", s)
		cb()
	}()
}
