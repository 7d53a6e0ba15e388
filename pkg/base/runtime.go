// Copyright 2024, Chef.  All rights reserved.
// https://github.com/q191201771/dvbscan
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import (
	"fmt"
	"time"
)

// RunTimer 记录扫描起始时刻，用于进度日志中的耗时显示
type RunTimer struct {
	start time.Time
}

func NewRunTimer() *RunTimer {
	return &RunTimer{start: time.Now()}
}

// Elapsed 格式化为 mm:ss.t
func (rt *RunTimer) Elapsed() string {
	d := time.Since(rt.start)
	min := int(d.Minutes())
	sec := d.Seconds() - float64(min)*60
	return fmt.Sprintf("%02d:%04.1f", min, sec)
}
