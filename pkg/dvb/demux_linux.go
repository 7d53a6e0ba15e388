// Copyright 2024, Chef.  All rights reserved.
// https://github.com/q191201771/dvbscan
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

//go:build linux
// +build linux

package dvb

import (
	"fmt"
	"syscall"
	"time"
	"unsafe"

	"github.com/q191201771/dvbscan/pkg/base"
)

const (
	ioctlDmxStop      = (0x6f << 8) | 42
	ioctlDmxSetFilter = (1 << 30) | (60 << 16) | (0x6f << 8) | 43 // sizeof(dmx_sct_filter_params)=60

	dmxCheckCrc       = 1
	dmxImmediateStart = 4
)

// dmxSctFilterParams 对应struct dmx_sct_filter_params，60字节。
// filter字节1..15匹配section字节3..17，即跳过section_length两字节
type dmxSctFilterParams struct {
	pid     uint16
	filter  [16]byte
	mask    [16]byte
	mode    [16]byte
	timeout uint32
	flags   uint32
}

// LinuxSectionSource demux设备上的section过滤器来源。
// 每个过滤器独占一个demux fd
type LinuxSectionSource struct {
	adapter int
	demux   int
}

func NewLinuxSectionSource(adapter int, demux int) *LinuxSectionSource {
	return &LinuxSectionSource{
		adapter: adapter,
		demux:   demux,
	}
}

type demuxHandle struct {
	fd     int
	params dmxSctFilterParams
	closed bool
}

func (s *LinuxSectionSource) OpenSectionFilter(pid uint16, tableId uint8, tableIdExt int, checkCrc bool) (SectionHandle, error) {
	path := fmt.Sprintf("/dev/dvb/adapter%d/demux%d", s.adapter, s.demux)
	fd, err := syscall.Open(path, syscall.O_RDWR|syscall.O_NONBLOCK, 0)
	if err != nil {
		switch err {
		case syscall.EMFILE, syscall.EBUSY:
			return nil, base.ErrFilterCapacity
		case syscall.EACCES, syscall.EPERM:
			return nil, base.ErrDevicePermission
		case syscall.ENOENT, syscall.ENODEV:
			return nil, base.ErrDeviceNotFound
		}
		return nil, err
	}

	h := &demuxHandle{fd: fd}
	h.params.pid = pid
	h.params.filter[0] = tableId
	h.params.mask[0] = 0xFF
	if tableIdExt >= 0 {
		h.params.filter[1] = uint8(tableIdExt >> 8)
		h.params.filter[2] = uint8(tableIdExt)
		h.params.mask[1] = 0xFF
		h.params.mask[2] = 0xFF
	}
	h.params.flags = dmxImmediateStart
	if checkCrc {
		h.params.flags |= dmxCheckCrc
	}
	if err = h.start(); err != nil {
		_ = syscall.Close(fd)
		return nil, err
	}
	return h, nil
}

func (h *demuxHandle) start() error {
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, uintptr(h.fd), ioctlDmxSetFilter, uintptr(unsafe.Pointer(&h.params)))
	if errno != 0 {
		return base.NewErrIoctl("DMX_SET_FILTER", errno)
	}
	return nil
}

// ReadSection demux的语义是一次read返回一个完整section。
// EOVERFLOW表示驱动内部缓冲溢出，重启过滤器后通知调用方
func (h *demuxHandle) ReadSection(buf []byte) (int, error) {
	if h.closed {
		return 0, base.ErrFilterClosed
	}
	n, err := syscall.Read(h.fd, buf)
	if err == nil {
		return n, nil
	}
	if err == syscall.EOVERFLOW {
		_, _, _ = syscall.Syscall(syscall.SYS_IOCTL, uintptr(h.fd), ioctlDmxStop, 0)
		if err = h.start(); err != nil {
			return 0, err
		}
		return 0, base.ErrSectionOverflow
	}
	if err == syscall.EAGAIN {
		return 0, nil
	}
	return 0, err
}

func (h *demuxHandle) Close() error {
	if h.closed {
		return base.ErrFilterClosed
	}
	h.closed = true
	_, _, _ = syscall.Syscall(syscall.SYS_IOCTL, uintptr(h.fd), ioctlDmxStop, 0)
	return syscall.Close(h.fd)
}

func (s *LinuxSectionSource) Wait(handles []SectionHandle, timeout time.Duration) ([]SectionHandle, error) {
	var rfds syscall.FdSet
	maxFd := -1
	for _, sh := range handles {
		h, ok := sh.(*demuxHandle)
		if !ok || h.closed {
			continue
		}
		fdSet(&rfds, h.fd)
		if h.fd > maxFd {
			maxFd = h.fd
		}
	}
	if maxFd < 0 {
		time.Sleep(timeout)
		return nil, nil
	}
	tv := syscall.NsecToTimeval(timeout.Nanoseconds())
	n, err := syscall.Select(maxFd+1, &rfds, nil, nil, &tv)
	if err != nil {
		if err == syscall.EINTR {
			return nil, nil
		}
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	var ready []SectionHandle
	for _, sh := range handles {
		h, ok := sh.(*demuxHandle)
		if !ok || h.closed {
			continue
		}
		if fdIsSet(&rfds, h.fd) {
			ready = append(ready, sh)
		}
	}
	return ready, nil
}

func (s *LinuxSectionSource) Close() error {
	return nil
}

func fdSet(set *syscall.FdSet, fd int) {
	set.Bits[fd/64] |= 1 << uint(fd%64)
}

func fdIsSet(set *syscall.FdSet, fd int) bool {
	return set.Bits[fd/64]&(1<<uint(fd%64)) != 0
}
