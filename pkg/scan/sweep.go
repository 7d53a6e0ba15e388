// Copyright 2024, Chef.  All rights reserved.
// https://github.com/q191201771/dvbscan
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package scan

import (
	"github.com/q191201771/dvbscan/pkg/chanlist"
	"github.com/q191201771/dvbscan/pkg/dvb"
)

// TuningPoint 扫描带上的一个尝试点
type TuningPoint struct {
	Delsys      dvb.DeliverySystem
	Modulation  dvb.Modulation
	Channel     int
	OffsetIndex int
	Frequency   uint32 // Hz
	Bandwidth   uint32 // Hz
	Symbolrate  uint32 // 仅cable
}

// Sweep 遍历 delsys x 调制 x 频道 x 偏移 x 符号率 的迭代器。
// Next推进游标并跳过表里不存在的组合，返回false表示整个带扫完
type Sweep struct {
	plan        *chanlist.Plan
	delsys      []dvb.DeliverySystem
	modulations []dvb.Modulation
	symbolrates []uint32
	chMin       int
	chMax       int

	di, mi, ch, oi, si int
	started            bool
}

func NewSweep(opts Options) *Sweep {
	s := &Sweep{
		plan:        opts.Plan,
		symbolrates: []uint32{0},
	}
	switch opts.Mode {
	case ModeCable:
		if s.plan == nil {
			s.plan = chanlist.DefaultCablePlan()
		}
		s.delsys = []dvb.DeliverySystem{dvb.SysDvbcAnnexA}
		s.modulations = []dvb.Modulation{dvb.Qam64, dvb.Qam256}
		s.symbolrates = chanlist.CableSymbolrates()
	case ModeAtsc:
		if s.plan == nil {
			s.plan = chanlist.PlanForCountry("US")
		}
		s.delsys = []dvb.DeliverySystem{dvb.SysAtsc}
		switch opts.AtscType {
		case AtscQam:
			s.modulations = []dvb.Modulation{dvb.Qam256}
		case AtscBoth:
			s.modulations = []dvb.Modulation{dvb.Vsb8, dvb.Qam256}
		default:
			s.modulations = []dvb.Modulation{dvb.Vsb8}
		}
	default:
		if s.plan == nil {
			s.plan = chanlist.DefaultPlan()
		}
		switch opts.DvbtType {
		case DvbtOnly:
			s.delsys = []dvb.DeliverySystem{dvb.SysDvbt}
		case Dvbt2Only:
			s.delsys = []dvb.DeliverySystem{dvb.SysDvbt2}
		default:
			s.delsys = []dvb.DeliverySystem{dvb.SysDvbt, dvb.SysDvbt2}
		}
		s.modulations = []dvb.Modulation{dvb.QamAuto}
	}
	s.chMin = s.plan.ChannelMin()
	s.chMax = s.plan.ChannelMax()
	if opts.ChannelMin > 0 {
		s.chMin = opts.ChannelMin
	}
	if opts.ChannelMax > 0 {
		s.chMax = opts.ChannelMax
	}
	s.ch = s.chMin
	return s
}

func (s *Sweep) Plan() *chanlist.Plan {
	return s.plan
}

// Next 返回下一个可调谐点
func (s *Sweep) Next() (TuningPoint, bool) {
	for {
		if !s.started {
			s.started = true
		} else if !s.advance() {
			return TuningPoint{}, false
		}
		freq := s.plan.Frequency(s.ch, s.oi)
		if freq == 0 {
			continue
		}
		tp := TuningPoint{
			Delsys:      s.delsys[s.di],
			Modulation:  s.modulations[s.mi],
			Channel:     s.ch,
			OffsetIndex: s.oi,
			Frequency:   freq,
			Bandwidth:   s.plan.Bandwidth(s.ch),
			Symbolrate:  s.symbolrates[s.si],
		}
		return tp, true
	}
}

// advance 最内层是符号率，依次向外进位
func (s *Sweep) advance() bool {
	s.si++
	if s.si < len(s.symbolrates) {
		return true
	}
	s.si = 0
	s.oi++
	if s.oi < s.plan.OffsetCount(s.ch) {
		return true
	}
	s.oi = 0
	s.ch++
	if s.ch <= s.chMax {
		return true
	}
	s.ch = s.chMin
	s.mi++
	if s.mi < len(s.modulations) {
		return true
	}
	s.mi = 0
	s.di++
	return s.di < len(s.delsys)
}
