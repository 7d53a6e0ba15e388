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
	"os"
	"syscall"
	"unsafe"

	"github.com/q191201771/dvbscan/pkg/base"
)

// ioctl编号按linux/dvb/frontend.h展开，避免cgo。
// _IOW(1<<30) _IOR(2<<30)，type='o'(0x6f)
const (
	ioctlFeGetInfo     = (2 << 30) | (168 << 16) | (0x6f << 8) | 61 // sizeof(dvb_frontend_info)=168
	ioctlFeReadStatus  = (2 << 30) | (4 << 16) | (0x6f << 8) | 69
	ioctlFeSetProperty = (1 << 30) | (16 << 16) | (0x6f << 8) | 82 // sizeof(dtv_properties)=16
	ioctlFeGetProperty = (2 << 30) | (16 << 16) | (0x6f << 8) | 83
)

// dtvProperty 对应packed的struct dtv_property，共76字节。
// union部分以字节数组表示，按宿主字节序读写
type dtvProperty struct {
	cmd      uint32
	reserved [3]uint32
	u        [56]byte
	result   int32
}

type dtvProperties struct {
	num uint32
	_   uint32
	ptr uintptr
}

func (p *dtvProperty) setData(v uint32) {
	*(*uint32)(unsafe.Pointer(&p.u[0])) = v
}

func (p *dtvProperty) data() uint32 {
	return *(*uint32)(unsafe.Pointer(&p.u[0]))
}

// statAt 解析union中dtv_fe_stats的第i项。
// 每项9字节packed: scale(1) + value(8)
func (p *dtvProperty) statAt(i int) (scale uint8, value uint64) {
	off := 1 + 9*i
	scale = p.u[off]
	copy((*[8]byte)(unsafe.Pointer(&value))[:], p.u[off+1:off+9])
	return
}

func (p *dtvProperty) statLen() int {
	return int(p.u[0])
}

type LinuxFrontend struct {
	file *os.File
	caps Caps
}

// OpenFrontend 打开 /dev/dvb/adapter<a>/frontend<f> 并查询能力集
func OpenFrontend(adapter int, frontend int) (*LinuxFrontend, error) {
	path := fmt.Sprintf("/dev/dvb/adapter%d/frontend%d", adapter, frontend)
	file, err := os.OpenFile(path, os.O_RDWR|syscall.O_NONBLOCK, 0)
	if err != nil {
		return nil, mapOpenErr(path, err)
	}
	f := &LinuxFrontend{file: file}
	if err = f.queryCaps(); err != nil {
		_ = file.Close()
		return nil, err
	}
	return f, nil
}

func mapOpenErr(path string, err error) error {
	pe, ok := err.(*os.PathError)
	if !ok {
		return err
	}
	switch pe.Err {
	case syscall.EBUSY:
		Log.Warnf("device busy. path=%s", path)
		return base.ErrDeviceBusy
	case syscall.EACCES, syscall.EPERM:
		return base.ErrDevicePermission
	case syscall.ENOENT, syscall.ENODEV:
		return base.ErrDeviceNotFound
	}
	return err
}

func (f *LinuxFrontend) ioctl(req uintptr, arg unsafe.Pointer, name string) error {
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, f.file.Fd(), req, uintptr(arg))
	if errno != 0 {
		return base.NewErrIoctl(name, errno)
	}
	return nil
}

func (f *LinuxFrontend) getProperties(props []dtvProperty) error {
	arg := dtvProperties{
		num: uint32(len(props)),
		ptr: uintptr(unsafe.Pointer(&props[0])),
	}
	return f.ioctl(ioctlFeGetProperty, unsafe.Pointer(&arg), "FE_GET_PROPERTY")
}

func (f *LinuxFrontend) setProperties(props []dtvProperty) syscall.Errno {
	arg := dtvProperties{
		num: uint32(len(props)),
		ptr: uintptr(unsafe.Pointer(&props[0])),
	}
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, f.file.Fd(), ioctlFeSetProperty, uintptr(unsafe.Pointer(&arg)))
	return errno
}

func (f *LinuxFrontend) queryCaps() error {
	// dvb_frontend_info: name[128] + 10个u32
	var info [168]byte
	if err := f.ioctl(ioctlFeGetInfo, unsafe.Pointer(&info[0]), "FE_GET_INFO"); err != nil {
		return err
	}
	n := 0
	for n < 128 && info[n] != 0 {
		n++
	}
	u32 := func(i int) uint32 {
		return *(*uint32)(unsafe.Pointer(&info[128+4*i]))
	}
	f.caps = Caps{
		Name:          string(info[:n]),
		FrequencyMin:  u32(1),
		FrequencyMax:  u32(2),
		SymbolRateMin: u32(5),
		SymbolRateMax: u32(6),
		CapFlags:      u32(9),
	}

	props := []dtvProperty{
		{cmd: DtvApiVersion},
		{cmd: DtvEnumDelsys},
	}
	if err := f.getProperties(props); err != nil {
		return err
	}
	f.caps.ApiVersion = uint16(props[0].data())
	if f.caps.ApiVersion>>8 < 5 {
		Log.Errorf("DVB API too old. version=%d.%d", f.caps.ApiVersion>>8, f.caps.ApiVersion&0xFF)
		return base.ErrApiVersion
	}
	// DTV_ENUM_DELSYS以buffer返回，u[0..31]为列表，长度在u[32:36]
	bn := int(*(*uint32)(unsafe.Pointer(&props[1].u[32])))
	if bn > 32 {
		bn = 32
	}
	for i := 0; i < bn; i++ {
		f.caps.DeliverySystems = append(f.caps.DeliverySystems, DeliverySystem(props[1].u[i]))
	}
	Log.Debugf("frontend caps. name=%s, freq=[%d, %d], delsys=%v, api=%d.%d",
		f.caps.Name, f.caps.FrequencyMin, f.caps.FrequencyMax, f.caps.DeliverySystems,
		f.caps.ApiVersion>>8, f.caps.ApiVersion&0xFF)
	return nil
}

func (f *LinuxFrontend) Info() Caps {
	return f.caps
}

func (f *LinuxFrontend) Tune(t Tuning) error {
	if t.Frequency < f.caps.FrequencyMin || t.Frequency > f.caps.FrequencyMax {
		return base.ErrTuneOutOfRange
	}
	if t.Symbolrate != 0 &&
		(t.Symbolrate < f.caps.SymbolRateMin || t.Symbolrate > f.caps.SymbolRateMax) {
		return base.ErrTuneOutOfRange
	}

	// DTV_CLEAR在最前，DTV_TUNE在最后，顺序不可调换
	props := make([]dtvProperty, 0, 16)
	add := func(cmd uint32, v uint32) {
		p := dtvProperty{cmd: cmd}
		p.setData(v)
		props = append(props, p)
	}
	add(DtvClear, 0)
	add(DtvDeliverySystem, uint32(t.Delsys))
	add(DtvFrequency, t.Frequency)
	add(DtvInversion, uint32(t.Inversion))
	switch t.Delsys {
	case SysDvbt, SysDvbt2:
		add(DtvBandwidthHz, t.Bandwidth)
		add(DtvCodeRateHp, uint32(t.CodeRateHp))
		add(DtvCodeRateLp, uint32(t.CodeRateLp))
		add(DtvModulation, uint32(t.Modulation))
		add(DtvTransmission, uint32(t.Transmission))
		add(DtvGuardInterval, uint32(t.Guard))
		add(DtvHierarchy, uint32(t.Hierarchy))
		if t.Delsys == SysDvbt2 {
			add(DtvStreamId, uint32(t.PlpId))
		}
	case SysDvbcAnnexA, SysDvbcAnnexC:
		add(DtvSymbolRate, t.Symbolrate)
		add(DtvModulation, uint32(t.Modulation))
		add(DtvInnerFec, uint32(t.CodeRateHp))
	case SysAtsc, SysDvbcAnnexB:
		add(DtvModulation, uint32(t.Modulation))
	}
	add(DtvTune, 0)

	if errno := f.setProperties(props); errno != 0 {
		if errno == syscall.EINVAL {
			return base.ErrTuneUnsupported
		}
		return base.NewErrIoctl("FE_SET_PROPERTY", errno)
	}
	return nil
}

func (f *LinuxFrontend) ReadStatus() (Status, error) {
	var st uint32
	if err := f.ioctl(ioctlFeReadStatus, unsafe.Pointer(&st), "FE_READ_STATUS"); err != nil {
		return 0, err
	}
	return Status(st), nil
}

func (f *LinuxFrontend) ReadSignal() (Signal, error) {
	props := []dtvProperty{
		{cmd: DtvStatSignalStrength},
		{cmd: DtvStatCnr},
	}
	if err := f.getProperties(props); err != nil {
		return Signal{}, err
	}
	var sig Signal
	if props[0].statLen() > 0 {
		scale, v := props[0].statAt(0)
		sig.Strength = SignalStat{Scale: scale, Uvalue: v, Svalue: int64(v)}
	}
	if props[1].statLen() > 0 {
		scale, v := props[1].statAt(0)
		sig.Cnr = SignalStat{Scale: scale, Uvalue: v, Svalue: int64(v)}
	}
	return sig, nil
}

func (f *LinuxFrontend) CurrentDeliverySystem() (DeliverySystem, error) {
	props := []dtvProperty{
		{cmd: DtvDeliverySystem},
	}
	if err := f.getProperties(props); err != nil {
		return SysUndefined, err
	}
	return DeliverySystem(props[0].data()), nil
}

func (f *LinuxFrontend) Close() error {
	return f.file.Close()
}
