// Copyright 2024, Chef.  All rights reserved.
// https://github.com/q191201771/dvbscan
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package dvb

import (
	"io"
	"os"
	"time"

	"github.com/Comcast/gots/packet"
	"github.com/q191201771/dvbscan/pkg/base"
)

// FileFrontend 基于TS录像文件的仿真前端，用于无硬件环境下跑通整个扫描流程。
// LockFrequency为0时任意频点都锁定，否则只在该频点锁定
type FileFrontend struct {
	LockFrequency uint32

	caps  Caps
	tuned Tuning
}

func NewFileFrontend(lockFrequency uint32) *FileFrontend {
	return &FileFrontend{
		LockFrequency: lockFrequency,
		caps: Caps{
			Name:          "file emulation",
			FrequencyMin:  0,
			FrequencyMax:  0xFFFFFFFF,
			SymbolRateMin: 0,
			SymbolRateMax: 0xFFFFFFFF,
			CapFlags: FeCanInversionAuto | FeCanFecAuto | FeCanQamAuto |
				FeCanTransmissionAuto | FeCanGuardIntervalAuto | FeCanHierarchyAuto |
				FeCan2gModulation,
			ApiVersion:      5<<8 | 11,
			DeliverySystems: []DeliverySystem{SysDvbt, SysDvbt2, SysDvbcAnnexA, SysAtsc},
		},
	}
}

func (f *FileFrontend) Info() Caps {
	return f.caps
}

func (f *FileFrontend) Tune(t Tuning) error {
	f.tuned = t
	return nil
}

func (f *FileFrontend) ReadStatus() (Status, error) {
	if f.LockFrequency == 0 || f.tuned.Frequency == f.LockFrequency {
		return FeHasSignal | FeHasCarrier | FeHasViterbi | FeHasSync | FeHasLock, nil
	}
	return 0, nil
}

func (f *FileFrontend) ReadSignal() (Signal, error) {
	return Signal{
		Strength: SignalStat{Scale: ScaleRelative, Uvalue: 0xFFFF},
		Cnr:      SignalStat{Scale: ScaleNotAvailable},
	}, nil
}

func (f *FileFrontend) CurrentDeliverySystem() (DeliverySystem, error) {
	return f.tuned.Delsys, nil
}

func (f *FileFrontend) Close() error {
	return nil
}

// ---------------------------------------------------------------------------------------------------------------------

// FileSource 从TS文件中按PID重组section，提供与demux设备一致的过滤器语义。
// Wait时推进文件读取，直到有section可取或读到文件尾
type FileSource struct {
	file       *os.File
	eof        bool
	assemblers map[int]*sectionAssembler
	handles    []*fileHandle
}

func NewFileSource(path string) (*FileSource, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, base.ErrFileNotExist
		}
		return nil, err
	}
	return &FileSource{
		file:       file,
		assemblers: make(map[int]*sectionAssembler),
	}, nil
}

type fileHandle struct {
	src        *FileSource
	pid        int
	tableId    uint8
	tableIdExt int
	checkCrc   bool
	queue      [][]byte
	closed     bool
}

func (s *FileSource) OpenSectionFilter(pid uint16, tableId uint8, tableIdExt int, checkCrc bool) (SectionHandle, error) {
	h := &fileHandle{
		src:        s,
		pid:        int(pid),
		tableId:    tableId,
		tableIdExt: tableIdExt,
		checkCrc:   checkCrc,
	}
	s.handles = append(s.handles, h)
	if s.assemblers[h.pid] == nil {
		s.assemblers[h.pid] = &sectionAssembler{}
	}
	return h, nil
}

func (h *fileHandle) ReadSection(buf []byte) (int, error) {
	if h.closed {
		return 0, base.ErrFilterClosed
	}
	if len(h.queue) == 0 {
		return 0, nil
	}
	sec := h.queue[0]
	h.queue = h.queue[1:]
	if len(sec) > len(buf) {
		return 0, base.ErrShortBuffer
	}
	copy(buf, sec)
	return len(sec), nil
}

func (h *fileHandle) Close() error {
	if h.closed {
		return base.ErrFilterClosed
	}
	h.closed = true
	return nil
}

func (s *FileSource) Wait(handles []SectionHandle, timeout time.Duration) ([]SectionHandle, error) {
	deadline := time.Now().Add(timeout)
	for {
		var ready []SectionHandle
		for _, sh := range handles {
			if h, ok := sh.(*fileHandle); ok && !h.closed && len(h.queue) > 0 {
				ready = append(ready, sh)
			}
		}
		if len(ready) > 0 {
			return ready, nil
		}
		if s.eof || time.Now().After(deadline) {
			// 文件读完后保持demux超时语义，让调用方的过滤器超时机制收尾
			time.Sleep(timeout)
			return nil, nil
		}
		if err := s.pump(64); err != nil {
			return nil, err
		}
	}
}

// pump 读取至多n个TS包并分发给各PID的重组器
func (s *FileSource) pump(n int) error {
	var pkt packet.Packet
	for i := 0; i < n; i++ {
		if _, err := io.ReadFull(s.file, pkt[:]); err != nil {
			s.eof = true
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil
			}
			return err
		}
		if pkt[0] != 0x47 {
			// 失去同步，逐字节找回
			if !s.resync(&pkt) {
				return nil
			}
		}
		pid := pkt.PID()
		asm := s.assemblers[pid]
		if asm == nil {
			continue
		}
		payload, err := packet.Payload(&pkt)
		if err != nil {
			continue
		}
		for _, sec := range asm.push(payload, packet.PayloadUnitStartIndicator(&pkt)) {
			s.dispatch(pid, sec)
		}
	}
	return nil
}

func (s *FileSource) resync(pkt *packet.Packet) bool {
	var b [1]byte
	for {
		if _, err := s.file.Read(b[:]); err != nil {
			s.eof = true
			return false
		}
		if b[0] == 0x47 {
			pkt[0] = 0x47
			if _, err := io.ReadFull(s.file, pkt[1:]); err != nil {
				s.eof = true
				return false
			}
			return true
		}
	}
}

func (s *FileSource) dispatch(pid int, sec []byte) {
	for _, h := range s.handles {
		if h.closed || h.pid != pid {
			continue
		}
		if h.tableId != sec[0] {
			continue
		}
		if h.tableIdExt >= 0 && len(sec) >= 5 {
			ext := int(sec[3])<<8 | int(sec[4])
			if ext != h.tableIdExt {
				continue
			}
		}
		if h.checkCrc && !base.CheckCrc32(sec) {
			continue
		}
		cp := make([]byte, len(sec))
		copy(cp, sec)
		h.queue = append(h.queue, cp)
	}
}

func (s *FileSource) Close() error {
	return s.file.Close()
}

// ---------------------------------------------------------------------------------------------------------------------

// sectionAssembler 单个PID上的section重组。
// PUSI包的首字节为pointer_field，其前导部分接上一个未完成的section，
// 之后可能连续排多个section，直到遇到0xFF填充
type sectionAssembler struct {
	buf     []byte
	started bool
}

func (a *sectionAssembler) push(payload []byte, pusi bool) [][]byte {
	var out [][]byte
	if !pusi {
		if !a.started {
			return nil
		}
		a.buf = append(a.buf, payload...)
		return append(out, a.drain()...)
	}
	if len(payload) < 1 {
		return nil
	}
	ptr := int(payload[0])
	if 1+ptr > len(payload) {
		a.reset()
		return nil
	}
	if a.started {
		a.buf = append(a.buf, payload[1:1+ptr]...)
		out = append(out, a.drain()...)
	}
	a.reset()
	a.started = true
	a.buf = append(a.buf, payload[1+ptr:]...)
	return append(out, a.drain()...)
}

// drain 从缓冲中取出所有已完整的section
func (a *sectionAssembler) drain() (out [][]byte) {
	for {
		if len(a.buf) == 0 {
			return
		}
		if a.buf[0] == 0xFF {
			// 填充字节，丢弃到下一个PUSI
			a.reset()
			return
		}
		if len(a.buf) < 3 {
			return
		}
		total := 3 + (int(a.buf[1]&0x0F)<<8 | int(a.buf[2]))
		if total > MaxSectionSize {
			a.reset()
			return
		}
		if len(a.buf) < total {
			return
		}
		sec := make([]byte, total)
		copy(sec, a.buf[:total])
		out = append(out, sec)
		a.buf = a.buf[total:]
	}
}

func (a *sectionAssembler) reset() {
	a.buf = nil
	a.started = false
}
