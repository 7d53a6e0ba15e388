// Copyright 2024, Chef.  All rights reserved.
// https://github.com/q191201771/dvbscan
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package dvb

// Tuning 一次调谐所需的全部物理层参数，对应发往frontend的property序列
type Tuning struct {
	Delsys       DeliverySystem
	Frequency    uint32 // Hz
	Inversion    Inversion
	Bandwidth    uint32 // Hz，仅地面
	CodeRateHp   CodeRate
	CodeRateLp   CodeRate
	Modulation   Modulation
	Transmission TransmissionMode
	Guard        GuardInterval
	Hierarchy    Hierarchy
	PlpId        uint8  // 仅DVB-T2
	Symbolrate   uint32 // 仅cable
}

// Status fe_status位组合
type Status uint8

func (s Status) HasSignal() bool  { return s&FeHasSignal != 0 }
func (s Status) HasCarrier() bool { return s&FeHasCarrier != 0 }
func (s Status) HasViterbi() bool { return s&FeHasViterbi != 0 }
func (s Status) HasSync() bool    { return s&FeHasSync != 0 }
func (s Status) HasLock() bool    { return s&FeHasLock != 0 }

// SignalStat 单项统计量，保留驱动返回的单位标签
type SignalStat struct {
	Scale  uint8
	Uvalue uint64 // ScaleRelative: 0..65535
	Svalue int64  // ScaleDecibel: 0.001 dB(m)
}

type Signal struct {
	Strength SignalStat
	Cnr      SignalStat
}

type Caps struct {
	Name            string
	FrequencyMin    uint32
	FrequencyMax    uint32
	SymbolRateMin   uint32
	SymbolRateMax   uint32
	CapFlags        uint32
	ApiVersion      uint16
	DeliverySystems []DeliverySystem
}

func (c Caps) Can(flag uint32) bool {
	return c.CapFlags&flag != 0
}

func (c Caps) Supports(d DeliverySystem) bool {
	for _, s := range c.DeliverySystems {
		if s == d {
			return true
		}
	}
	return false
}

// Frontend 调谐器抽象。真实实现为linux DVB设备，另有基于TS文件的仿真实现
type Frontend interface {
	Info() Caps
	// Tune 下发property序列。参数越界返回 base.ErrTuneOutOfRange，
	// 驱动拒绝返回 base.ErrTuneUnsupported
	Tune(t Tuning) error
	ReadStatus() (Status, error)
	ReadSignal() (Signal, error)
	// CurrentDeliverySystem 回读实际生效的delivery system。
	// 部分前端(cxd2820r)会在DVB-T/T2之间自行切换
	CurrentDeliverySystem() (DeliverySystem, error)
	Close() error
}
