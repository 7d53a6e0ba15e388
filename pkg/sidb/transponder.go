// Copyright 2024, Chef.  All rights reserved.
// https://github.com/q191201771/dvbscan
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package sidb

import (
	"fmt"

	"github.com/q191201771/dvbscan/pkg/dvb"
)

// ScanType 扫描大类。T和T2同属地面类，去重时视为同类
type ScanType uint8

const (
	ScanTerrestrial ScanType = iota
	ScanCable
	ScanAtsc
)

func ScanTypeOf(d dvb.DeliverySystem) ScanType {
	switch d {
	case dvb.SysDvbcAnnexA, dvb.SysDvbcAnnexC:
		return ScanCable
	case dvb.SysAtsc, dvb.SysDvbcAnnexB:
		return ScanAtsc
	}
	return ScanTerrestrial
}

// 表来源位
const (
	SourcePat = 1 << iota
	SourceNitActual
	SourceNitOther
)

// Transponder 一个物理载波上的复用。
// 由锁定时分配，之后被各表的合并逻辑修改
type Transponder struct {
	Id int // 数据库内唯一，Service以此回指

	dvb.Tuning

	OriginalNetworkId uint16
	NetworkId         uint16
	TransportStreamId uint16
	NetworkName       string
	Source            uint8

	// NIT通告的备选频点
	Cells []uint32

	Services []*Service

	// NIT中逻辑频道号按service_id下发，可能早于service创建
	lcns map[uint16]LcnEntry
}

type LcnEntry struct {
	ChannelNumber uint16
	Visible       bool
}

func (t *Transponder) ScanType() ScanType {
	return ScanTypeOf(t.Delsys)
}

func (t *Transponder) SetLcn(serviceId uint16, e LcnEntry) {
	if t.lcns == nil {
		t.lcns = make(map[uint16]LcnEntry)
	}
	t.lcns[serviceId] = e
}

func (t *Transponder) Lcn(serviceId uint16) (LcnEntry, bool) {
	e, ok := t.lcns[serviceId]
	return e, ok
}

// AddCell 记录备选频点，重复值丢弃
func (t *Transponder) AddCell(frequency uint32) {
	if frequency == 0 || frequency == t.Frequency {
		return
	}
	for _, c := range t.Cells {
		if c == frequency {
			return
		}
	}
	t.Cells = append(t.Cells, frequency)
}

// TripleEquals 三元组(original_network_id, network_id, transport_stream_id)比较
func (t *Transponder) TripleEquals(o *Transponder) bool {
	return t.OriginalNetworkId == o.OriginalNetworkId &&
		t.NetworkId == o.NetworkId &&
		t.TransportStreamId == o.TransportStreamId
}

func (t *Transponder) String() string {
	return fmt.Sprintf("%s f=%d onid=%d nid=%d tsid=%d services=%d",
		t.Delsys.String(), t.Frequency, t.OriginalNetworkId, t.NetworkId, t.TransportStreamId, len(t.Services))
}
