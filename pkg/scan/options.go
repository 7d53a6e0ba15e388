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
)

type Mode uint8

const (
	ModeTerrestrial Mode = iota
	ModeCable
	ModeAtsc
)

// 地面扫描要跑的代际
type DvbtType uint8

const (
	DvbtBoth DvbtType = iota
	DvbtOnly
	Dvbt2Only
)

// ATSC的调制组合
type AtscType uint8

const (
	AtscVsb AtscType = iota
	AtscQam
	AtscBoth
)

// 去重级别
//
//	0: 不去重，重复复用全部保留
//	1: 初始查询拿到三元组后即判重，重复的跳过服务扫描并丢弃
//	2: 无条件完整扫描，输出时丢弃重复并记录各频点信号质量
type DedupLevel int

const (
	DedupNone DedupLevel = iota
	DedupEarly
	DedupLate
)

type Options struct {
	Mode     Mode
	DvbtType DvbtType
	AtscType AtscType

	Plan       *chanlist.Plan
	ChannelMin int // 0用表内默认
	ChannelMax int

	Dedup       DedupLevel
	LongTimeout bool
	// 1快 2中 3慢，各等待超时按倍数放大
	TuningSpeed int

	// DVB-T2指定PLP，-1表示跟随流内默认
	PlpId int
}

func DefaultOptions() Options {
	return Options{
		Mode:        ModeTerrestrial,
		DvbtType:    DvbtBoth,
		AtscType:    AtscVsb,
		Dedup:       DedupEarly,
		TuningSpeed: 1,
		PlpId:       0,
	}
}
