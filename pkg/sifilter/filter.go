// Copyright 2024, Chef.  All rights reserved.
// https://github.com/q191201771/dvbscan
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package sifilter

import (
	"time"

	"github.com/q191201771/dvbscan/pkg/dvb"
)

// Handler 每收到一个通过校验且未重复的section回调一次
type Handler func(f *Filter, section []byte)

// Filter 对一个PID/table_id组合的订阅。
//
// 分段表(SDT/NIT，按table_id_extension切分)永远不会因集齐而完成，
// 只能等超时收束，因为段数事先未知
type Filter struct {
	Pid        uint16
	TableId    uint8
	TableIdExt int // -1表示不过滤
	ServiceId  uint16
	Segmented  bool
	RunOnce    bool
	CheckCrc   bool
	Handler    Handler

	handle   dvb.SectionHandle
	start    time.Time
	timeout  time.Duration
	done     bool
	timedOut bool
	received int

	// 按table_id_extension分别跟踪版本与section_number集齐情况
	segments map[uint16]*segmentState

	// CRC失败的payload暂存，仅供诊断
	Garbage [][]byte
}

type segmentState struct {
	version int
	bitmap  [4]uint64
	last    uint8
}

func newSegmentState() *segmentState {
	return &segmentState{version: -1}
}

func (ss *segmentState) mark(sn uint8, last uint8, version uint8) (fresh bool) {
	if ss.version >= 0 && ss.version != int(version) {
		// 版本翻转，推倒重来
		ss.bitmap = [4]uint64{}
	}
	ss.version = int(version)
	ss.last = last
	if ss.bitmap[sn/64]&(1<<uint(sn%64)) != 0 {
		return false
	}
	ss.bitmap[sn/64] |= 1 << uint(sn%64)
	return true
}

func (ss *segmentState) complete() bool {
	for i := 0; i <= int(ss.last); i++ {
		if ss.bitmap[i/64]&(1<<uint(i%64)) == 0 {
			return false
		}
	}
	return true
}

func (f *Filter) segment(ext uint16) *segmentState {
	if f.segments == nil {
		f.segments = make(map[uint16]*segmentState)
	}
	ss := f.segments[ext]
	if ss == nil {
		ss = newSegmentState()
		f.segments[ext] = ss
	}
	return ss
}

// Done 过滤器已收束(集齐或超时)
func (f *Filter) Done() bool {
	return f.done
}

// TimedOut 收束原因是超时
func (f *Filter) TimedOut() bool {
	return f.timedOut
}

// Received 通过校验的section计数
func (f *Filter) Received() int {
	return f.received
}

// Elapsed 从启动到现在的运行时长
func (f *Filter) Elapsed() time.Duration {
	if f.start.IsZero() {
		return 0
	}
	return Clock.Now().Sub(f.start)
}
