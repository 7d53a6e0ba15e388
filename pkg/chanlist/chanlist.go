// Copyright 2024, Chef.  All rights reserved.
// https://github.com/q191201771/dvbscan
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package chanlist

import (
	"strings"

	"github.com/q191201771/dvbscan/pkg/base"
)

// Plan 一张物理频道表: 若干连续频道段，每段一个线性频率规则。
// 频率 = base + step * channel，偏移在此之上叠加
type Plan struct {
	Name   string
	ranges []chanRange
}

type chanRange struct {
	first     int
	last      int
	baseHz    uint32
	stepHz    uint32
	bwHz      uint32
	offsetsHz []int32 // 每个频道要尝试的偏移，至少含0
}

var noOffset = []int32{0}

// 欧洲UHF，800MHz频段已让给LTE，默认只扫到ch60
var planUhf800 = &Plan{
	Name: "EU-UHF800",
	ranges: []chanRange{
		{first: 21, last: 60, baseHz: 306000000, stepHz: 8000000, bwHz: 8000000, offsetsHz: noOffset},
	},
}

// 700MHz也已让出的地区
var planUhf700 = &Plan{
	Name: "EU-UHF700",
	ranges: []chanRange{
		{first: 21, last: 48, baseHz: 306000000, stepHz: 8000000, bwHz: 8000000, offsetsHz: noOffset},
	},
}

var planUhfFull = &Plan{
	Name: "EU-UHF",
	ranges: []chanRange{
		{first: 21, last: 69, baseHz: 306000000, stepHz: 8000000, bwHz: 8000000, offsetsHz: noOffset},
	},
}

var planVhfUhf = &Plan{
	Name: "EU-VHF-UHF",
	ranges: []chanRange{
		{first: 5, last: 12, baseHz: 142500000, stepHz: 7000000, bwHz: 7000000, offsetsHz: noOffset},
		{first: 21, last: 69, baseHz: 306000000, stepHz: 8000000, bwHz: 8000000, offsetsHz: noOffset},
	},
}

var planFrance = &Plan{
	Name: "FR",
	ranges: []chanRange{
		{first: 21, last: 69, baseHz: 306000000, stepHz: 8000000, bwHz: 8000000,
			offsetsHz: []int32{0, 166000, 332000}},
	},
}

var planGb = &Plan{
	Name: "GB",
	ranges: []chanRange{
		{first: 21, last: 69, baseHz: 306000000, stepHz: 8000000, bwHz: 8000000,
			offsetsHz: []int32{0, 166670, -166670}},
	},
}

var planAustralia = &Plan{
	Name: "AU",
	ranges: []chanRange{
		{first: 28, last: 69, baseHz: 338000000, stepHz: 7000000, bwHz: 7000000, offsetsHz: noOffset},
	},
}

// 欧洲有线8MHz栅格，113~858MHz
var planCableEu = &Plan{
	Name: "EU-CABLE",
	ranges: []chanRange{
		{first: 1, last: 94, baseHz: 105000000, stepHz: 8000000, bwHz: 8000000, offsetsHz: noOffset},
	},
}

// 北美地面广播
var planAtscVsb = &Plan{
	Name: "US-VSB",
	ranges: []chanRange{
		{first: 2, last: 4, baseHz: 45000000, stepHz: 6000000, bwHz: 6000000, offsetsHz: noOffset},
		{first: 5, last: 6, baseHz: 49000000, stepHz: 6000000, bwHz: 6000000, offsetsHz: noOffset},
		{first: 7, last: 13, baseHz: 135000000, stepHz: 6000000, bwHz: 6000000, offsetsHz: noOffset},
		{first: 14, last: 69, baseHz: 389000000, stepHz: 6000000, bwHz: 6000000, offsetsHz: noOffset},
	},
}

// 北美有线EIA-542标准栅格
var planAtscQam = &Plan{
	Name: "US-CABLE",
	ranges: []chanRange{
		{first: 2, last: 4, baseHz: 45000000, stepHz: 6000000, bwHz: 6000000, offsetsHz: noOffset},
		{first: 5, last: 6, baseHz: 49000000, stepHz: 6000000, bwHz: 6000000, offsetsHz: noOffset},
		{first: 7, last: 13, baseHz: 135000000, stepHz: 6000000, bwHz: 6000000, offsetsHz: noOffset},
		{first: 14, last: 22, baseHz: 39000000, stepHz: 6000000, bwHz: 6000000, offsetsHz: noOffset},
		{first: 23, last: 94, baseHz: 81000000, stepHz: 6000000, bwHz: 6000000, offsetsHz: noOffset},
	},
}

var plans = []*Plan{
	planUhf800, planUhf700, planUhfFull, planVhfUhf,
	planFrance, planGb, planAustralia,
	planCableEu, planAtscVsb, planAtscQam,
}

// DefaultPlan 未指定国家时的地面默认表
func DefaultPlan() *Plan {
	return planUhf800
}

func DefaultCablePlan() *Plan {
	return planCableEu
}

func PlanByName(name string) (*Plan, error) {
	for _, p := range plans {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return nil, base.ErrUnknownCountry
}

// ISO 3166二位国家码到频道表的映射
var countryPlans = []struct {
	codes []string
	plan  *Plan
}{
	{[]string{"FR"}, planFrance},
	{[]string{"GB", "UK", "IE"}, planGb},
	{[]string{"AU", "NZ"}, planAustralia},
	{[]string{"DE", "AT", "CH", "IT", "ES", "NL", "BE", "SE", "NO", "DK", "FI", "PL", "CZ"}, planUhf800},
	{[]string{"US", "CA", "MX"}, planAtscVsb},
}

// PlanForCountry 未收录的国家回落到默认表
func PlanForCountry(country string) *Plan {
	c := strings.ToUpper(country)
	for _, e := range countryPlans {
		for _, code := range e.codes {
			if code == c {
				return e.plan
			}
		}
	}
	Log.Infof("country not in plan table, using default. country=%s, plan=%s",
		country, DefaultPlan().Name)
	return DefaultPlan()
}

// PlanNames 全部频道表名，供命令行列表输出
func PlanNames() []string {
	names := make([]string, 0, len(plans))
	for _, p := range plans {
		names = append(names, p.Name)
	}
	return names
}

// KnownCountries 已收录国家码和对应表名，每个国家一行"CC plan"
func KnownCountries() []string {
	var out []string
	for _, e := range countryPlans {
		for _, code := range e.codes {
			out = append(out, code+" "+e.plan.Name)
		}
	}
	return out
}

func (p *Plan) rangeOf(channel int) *chanRange {
	for i := range p.ranges {
		r := &p.ranges[i]
		if channel >= r.first && channel <= r.last {
			return r
		}
	}
	return nil
}

func (p *Plan) ChannelMin() int {
	return p.ranges[0].first
}

func (p *Plan) ChannelMax() int {
	return p.ranges[len(p.ranges)-1].last
}

// Frequency 频道中心频率。频道不在表内或偏移序号越界时返回0，表示跳过
func (p *Plan) Frequency(channel int, offsetIndex int) uint32 {
	r := p.rangeOf(channel)
	if r == nil {
		return 0
	}
	if offsetIndex < 0 || offsetIndex >= len(r.offsetsHz) {
		return 0
	}
	f := int64(r.baseHz) + int64(r.stepHz)*int64(channel) + int64(r.offsetsHz[offsetIndex])
	return uint32(f)
}

// Bandwidth 频道带宽，不在表内返回0
func (p *Plan) Bandwidth(channel int) uint32 {
	r := p.rangeOf(channel)
	if r == nil {
		return 0
	}
	return r.bwHz
}

// OffsetCount 该频道要尝试的偏移个数
func (p *Plan) OffsetCount(channel int) int {
	r := p.rangeOf(channel)
	if r == nil {
		return 0
	}
	return len(r.offsetsHz)
}

// MaxSymbolrate 带宽内滚降系数1.15能承载的最大符号率
func MaxSymbolrate(bandwidthHz uint32) uint32 {
	return uint32(float64(bandwidthHz) / 1.15)
}

// CableSymbolrates 有线扫描要轮询的常见符号率，按出现概率排序
func CableSymbolrates() []uint32 {
	return []uint32{
		6900000, 6875000, 6111000, 6250000, 6790000,
		6811000, 5900000, 5000000, 3450000, 4000000,
		6950000, 7000000, 6952000, 5156000, 5483000,
	}
}
