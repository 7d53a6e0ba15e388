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

	"github.com/q191201771/dvbscan/pkg/base"
	"github.com/q191201771/dvbscan/pkg/dvb"
	"github.com/q191201771/dvbscan/pkg/si"
)

// MaxActive demux同时能开的section过滤器上限。
// 超出的请求排队，有槽位释放时按序顶上
const MaxActive = 27

const waitTick = 25 * time.Millisecond

// Scheduler 管理一个transponder扫描期间的全部section过滤器
type Scheduler struct {
	source      dvb.SectionSource
	longTimeout bool

	active  []*Filter
	waiting []*Filter

	buf [dvb.MaxSectionSize]byte
}

func NewScheduler(source dvb.SectionSource, longTimeout bool) *Scheduler {
	return &Scheduler{
		source:      source,
		longTimeout: longTimeout,
	}
}

// Add 有空槽立即启动，否则排队等待
func (s *Scheduler) Add(f *Filter) error {
	if len(s.active) < MaxActive {
		return s.start(f)
	}
	s.waiting = append(s.waiting, f)
	return nil
}

func (s *Scheduler) start(f *Filter) error {
	handle, err := s.source.OpenSectionFilter(f.Pid, f.TableId, f.TableIdExt, f.CheckCrc)
	if err != nil {
		Log.Errorf("open section filter failed. pid=%d, tableId=0x%02X, err=%+v", f.Pid, f.TableId, err)
		return err
	}
	f.handle = handle
	f.start = Clock.Now()
	f.timeout = initialTimeout(f.TableId, s.longTimeout)
	s.active = append(s.active, f)
	Log.Debugf("filter started. pid=%d, tableId=0x%02X, timeout=%v, active=%d, waiting=%d",
		f.Pid, f.TableId, f.timeout, len(s.active), len(s.waiting))
	return nil
}

// remove 关闭并摘除，队首的等待者顶上空槽
func (s *Scheduler) remove(f *Filter) {
	if f.handle != nil {
		_ = f.handle.Close()
		f.handle = nil
	}
	for i, a := range s.active {
		if a == f {
			s.active = append(s.active[:i], s.active[i+1:]...)
			break
		}
	}
	for len(s.waiting) > 0 && len(s.active) < MaxActive {
		next := s.waiting[0]
		s.waiting = s.waiting[1:]
		if err := s.start(next); err != nil {
			next.done = true
			next.timedOut = true
		}
	}
}

// Idle 所有过滤器都已收束
func (s *Scheduler) Idle() bool {
	return len(s.active) == 0 && len(s.waiting) == 0
}

// Run 跑一轮: 等待至多25ms，读出就绪的section并分发，再收割超时者。
// 返回是否还有过滤器在工作
func (s *Scheduler) Run() bool {
	if s.Idle() {
		return false
	}
	handles := make([]dvb.SectionHandle, 0, len(s.active))
	for _, f := range s.active {
		handles = append(handles, f.handle)
	}
	ready, err := s.source.Wait(handles, waitTick)
	if err != nil {
		Log.Errorf("wait on section filters failed. err=%+v", err)
	}
	for _, h := range ready {
		f := s.filterByHandle(h)
		if f == nil || f.done {
			continue
		}
		n, err := h.ReadSection(s.buf[:])
		if err == base.ErrSectionOverflow {
			// 过滤器已重启，本轮重试一次
			n, err = h.ReadSection(s.buf[:])
		}
		if err != nil {
			Log.Warnf("read section failed. pid=%d, err=%+v", f.Pid, err)
			continue
		}
		if n == 0 {
			continue
		}
		s.processSection(f, s.buf[:n])
	}
	s.reap()
	return !s.Idle()
}

func (s *Scheduler) filterByHandle(h dvb.SectionHandle) *Filter {
	for _, f := range s.active {
		if f.handle == h {
			return f
		}
	}
	return nil
}

func (s *Scheduler) processSection(f *Filter, b []byte) {
	sec, err := si.TrimSection(b)
	if err != nil {
		if err == base.ErrSiCrc {
			// 留足重发时间等一份好的
			f.Garbage = append(f.Garbage, append([]byte(nil), b...))
			if t := crcFailTimeout(f.TableId, s.longTimeout); t > f.timeout {
				f.timeout = t
			}
			Log.Warnf("section crc failed, timeout extended. pid=%d, tableId=0x%02X, timeout=%v",
				f.Pid, f.TableId, f.timeout)
		} else {
			Log.Warnf("drop malformed section. pid=%d, err=%+v", f.Pid, err)
		}
		return
	}
	h, err := si.ParseSectionHeader(sec)
	if err != nil {
		return
	}
	if h.TableId != f.TableId {
		return
	}
	if f.TableIdExt >= 0 && int(h.TableIdExtension) != f.TableIdExt {
		return
	}
	if h.CurrentNextIndicator == 0 {
		// next版本的预告，不进库
		return
	}
	ss := f.segment(h.TableIdExtension)
	if !ss.mark(h.SectionNumber, h.LastSectionNumber, h.VersionNumber) {
		return
	}
	f.received++
	if f.Handler != nil {
		f.Handler(f, sec)
	}
	if f.RunOnce && !f.Segmented && ss.complete() {
		f.done = true
	}
}

// reap 收割超时的过滤器并移除已完成者
func (s *Scheduler) reap() {
	now := Clock.Now()
	for _, f := range append([]*Filter(nil), s.active...) {
		if !f.done && now.Sub(f.start) > f.timeout {
			f.done = true
			f.timedOut = true
			Log.Debugf("filter timed out. pid=%d, tableId=0x%02X, received=%d, elapsed=%v",
				f.Pid, f.TableId, f.received, now.Sub(f.start))
		}
		if f.done {
			s.remove(f)
		}
	}
}

// CloseAll 中止所有过滤器，等待中的直接作废
func (s *Scheduler) CloseAll() {
	// 先清空等待队列，避免remove把它们顶进active
	for _, f := range s.waiting {
		f.done = true
		f.timedOut = true
	}
	s.waiting = nil
	for _, f := range append([]*Filter(nil), s.active...) {
		f.done = true
		f.timedOut = true
		s.remove(f)
	}
}
