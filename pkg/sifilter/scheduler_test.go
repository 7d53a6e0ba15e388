// Copyright 2024, Chef.  All rights reserved.
// https://github.com/q191201771/dvbscan
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package sifilter_test

import (
	"testing"
	"time"

	"github.com/q191201771/dvbscan/pkg/base"
	"github.com/q191201771/dvbscan/pkg/dvb"
	"github.com/q191201771/dvbscan/pkg/si"
	"github.com/q191201771/dvbscan/pkg/sifilter"
	"github.com/q191201771/naza/pkg/assert"
)

type fakeHandle struct {
	pid    uint16
	queue  [][]byte
	closed bool
}

func (h *fakeHandle) ReadSection(buf []byte) (int, error) {
	if len(h.queue) == 0 {
		return 0, nil
	}
	sec := h.queue[0]
	h.queue = h.queue[1:]
	return copy(buf, sec), nil
}

func (h *fakeHandle) Close() error {
	h.closed = true
	return nil
}

type fakeSource struct {
	handles []*fakeHandle
}

func (s *fakeSource) OpenSectionFilter(pid uint16, tableId uint8, tableIdExt int, checkCrc bool) (dvb.SectionHandle, error) {
	h := &fakeHandle{pid: pid}
	s.handles = append(s.handles, h)
	return h, nil
}

func (s *fakeSource) Wait(handles []dvb.SectionHandle, timeout time.Duration) ([]dvb.SectionHandle, error) {
	var ready []dvb.SectionHandle
	for _, h := range handles {
		if fh, ok := h.(*fakeHandle); ok && len(fh.queue) > 0 {
			ready = append(ready, h)
		}
	}
	return ready, nil
}

func (s *fakeSource) Close() error { return nil }

// push 给pid对应的(未关闭)过滤器投递一个section
func (s *fakeSource) push(pid uint16, sec []byte) {
	for _, h := range s.handles {
		if h.pid == pid && !h.closed {
			h.queue = append(h.queue, sec)
		}
	}
}

func makeSection(tableId uint8, tableIdExt uint16, version uint8, sn uint8, lsn uint8, body []byte) []byte {
	length := len(body) + 5 + 4
	out := []byte{
		tableId, 0xB0 | uint8(length>>8), uint8(length),
		uint8(tableIdExt >> 8), uint8(tableIdExt),
		0xC0 | version<<1 | 0x01, sn, lsn,
	}
	out = append(out, body...)
	crc := base.CalcCrc32(0xFFFFFFFF, out)
	return append(out, byte(crc>>24), byte(crc>>16), byte(crc>>8), byte(crc))
}

func TestRunOnceCompletes(t *testing.T) {
	src := &fakeSource{}
	sched := sifilter.NewScheduler(src, false)

	var got [][]byte
	f := &sifilter.Filter{
		Pid:        si.PidPat,
		TableId:    si.TableIdPat,
		TableIdExt: -1,
		RunOnce:    true,
		CheckCrc:   true,
		Handler: func(f *sifilter.Filter, sec []byte) {
			got = append(got, append([]byte(nil), sec...))
		},
	}
	assert.Equal(t, nil, sched.Add(f))
	src.push(si.PidPat, makeSection(si.TableIdPat, 1, 0, 0, 0, []byte{0x00, 0x65, 0xE1, 0x00}))

	busy := sched.Run()
	assert.Equal(t, false, busy)
	assert.Equal(t, true, sched.Idle())
	assert.Equal(t, true, f.Done())
	assert.Equal(t, false, f.TimedOut())
	assert.Equal(t, 1, f.Received())
	assert.Equal(t, 1, len(got))
	assert.Equal(t, true, src.handles[0].closed)
}

func TestDuplicateSectionDropped(t *testing.T) {
	src := &fakeSource{}
	sched := sifilter.NewScheduler(src, false)

	f := &sifilter.Filter{Pid: si.PidSdt, TableId: si.TableIdSdtActual, TableIdExt: -1}
	_ = sched.Add(f)

	sec := makeSection(si.TableIdSdtActual, 7, 0, 0, 0, []byte{0x21, 0x14, 0xFF})
	src.push(si.PidSdt, sec)
	src.push(si.PidSdt, sec)
	sched.Run()
	sched.Run()
	assert.Equal(t, 1, f.Received())

	// 版本翻转后重新接收
	src.push(si.PidSdt, makeSection(si.TableIdSdtActual, 7, 1, 0, 0, []byte{0x21, 0x14, 0xFF}))
	sched.Run()
	assert.Equal(t, 2, f.Received())

	sched.CloseAll()
	assert.Equal(t, true, sched.Idle())
}

func TestTableIdExtFilter(t *testing.T) {
	src := &fakeSource{}
	sched := sifilter.NewScheduler(src, false)

	f := &sifilter.Filter{Pid: 0x100, TableId: si.TableIdPmt, TableIdExt: 0x65, RunOnce: true}
	_ = sched.Add(f)

	// extension不匹配的section被忽略
	src.push(0x100, makeSection(si.TableIdPmt, 0x66, 0, 0, 0, []byte{0xE1, 0x00, 0xF0, 0x00}))
	sched.Run()
	assert.Equal(t, 0, f.Received())
	assert.Equal(t, false, f.Done())

	src.push(0x100, makeSection(si.TableIdPmt, 0x65, 0, 0, 0, []byte{0xE1, 0x00, 0xF0, 0x00}))
	sched.Run()
	assert.Equal(t, 1, f.Received())
	assert.Equal(t, true, f.Done())
}

func TestMultiSectionTable(t *testing.T) {
	src := &fakeSource{}
	sched := sifilter.NewScheduler(src, false)

	f := &sifilter.Filter{Pid: si.PidPat, TableId: si.TableIdPat, TableIdExt: -1, RunOnce: true}
	_ = sched.Add(f)

	// 两段的PAT，全部到齐才算完成
	src.push(si.PidPat, makeSection(si.TableIdPat, 1, 0, 0, 1, []byte{0x00, 0x65, 0xE1, 0x00}))
	sched.Run()
	assert.Equal(t, 1, f.Received())
	assert.Equal(t, false, f.Done())

	src.push(si.PidPat, makeSection(si.TableIdPat, 1, 0, 1, 1, []byte{0x00, 0x66, 0xE1, 0x01}))
	sched.Run()
	assert.Equal(t, 2, f.Received())
	assert.Equal(t, true, f.Done())
}

func TestSegmentedNeverCompletesBySections(t *testing.T) {
	src := &fakeSource{}
	sched := sifilter.NewScheduler(src, false)

	f := &sifilter.Filter{
		Pid: si.PidSdt, TableId: si.TableIdSdtActual, TableIdExt: -1,
		Segmented: true, RunOnce: true,
	}
	_ = sched.Add(f)

	src.push(si.PidSdt, makeSection(si.TableIdSdtActual, 7, 0, 0, 0, []byte{0x21, 0x14, 0xFF}))
	busy := sched.Run()
	assert.Equal(t, true, busy)
	assert.Equal(t, 1, f.Received())
	assert.Equal(t, false, f.Done())

	sched.CloseAll()
	assert.Equal(t, true, f.Done())
	assert.Equal(t, true, f.TimedOut())
}

func TestCrcGarbageKept(t *testing.T) {
	src := &fakeSource{}
	sched := sifilter.NewScheduler(src, false)

	f := &sifilter.Filter{Pid: si.PidPat, TableId: si.TableIdPat, TableIdExt: -1, RunOnce: true}
	_ = sched.Add(f)

	bad := makeSection(si.TableIdPat, 1, 0, 0, 0, []byte{0x00, 0x65, 0xE1, 0x00})
	bad[9] ^= 0x01
	src.push(si.PidPat, bad)
	sched.Run()
	assert.Equal(t, 0, f.Received())
	assert.Equal(t, false, f.Done())
	assert.Equal(t, 1, len(f.Garbage))

	sched.CloseAll()
}

func TestCapacityQueueing(t *testing.T) {
	src := &fakeSource{}
	sched := sifilter.NewScheduler(src, false)

	var filters []*sifilter.Filter
	for i := 0; i < sifilter.MaxActive+3; i++ {
		f := &sifilter.Filter{
			Pid: uint16(0x100 + i), TableId: si.TableIdPmt, TableIdExt: -1, RunOnce: true,
		}
		filters = append(filters, f)
		_ = sched.Add(f)
	}
	// 只有前MaxActive个真正打开
	assert.Equal(t, sifilter.MaxActive, len(src.handles))

	// 完成一个，队首等待者顶上
	src.push(0x100, makeSection(si.TableIdPmt, 1, 0, 0, 0, []byte{0xE1, 0x00, 0xF0, 0x00}))
	sched.Run()
	assert.Equal(t, true, filters[0].Done())
	assert.Equal(t, sifilter.MaxActive+1, len(src.handles))
	assert.Equal(t, uint16(0x100+sifilter.MaxActive), src.handles[sifilter.MaxActive].pid)

	sched.CloseAll()
	assert.Equal(t, true, sched.Idle())
	for _, f := range filters {
		assert.Equal(t, true, f.Done())
	}
}

func TestRepetitionRate(t *testing.T) {
	assert.Equal(t, time.Second, sifilter.RepetitionRate(si.TableIdPat))
	assert.Equal(t, time.Second, sifilter.RepetitionRate(si.TableIdPmt))
	assert.Equal(t, 2*time.Second, sifilter.RepetitionRate(si.TableIdSdtActual))
	assert.Equal(t, 10*time.Second, sifilter.RepetitionRate(si.TableIdNitActual))
	assert.Equal(t, 30*time.Second, sifilter.RepetitionRate(0x72))
}
