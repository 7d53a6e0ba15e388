// Copyright 2024, Chef.  All rights reserved.
// https://github.com/q191201771/dvbscan
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package scan_test

import (
	"testing"

	"github.com/q191201771/dvbscan/pkg/chanlist"
	"github.com/q191201771/dvbscan/pkg/dvb"
	"github.com/q191201771/dvbscan/pkg/scan"
	"github.com/q191201771/naza/pkg/assert"
)

func collectSweep(s *scan.Sweep) []scan.TuningPoint {
	var out []scan.TuningPoint
	for {
		tp, ok := s.Next()
		if !ok {
			return out
		}
		out = append(out, tp)
	}
}

func TestSweepTerrestrialBoth(t *testing.T) {
	opts := scan.DefaultOptions()
	opts.ChannelMin = 21
	opts.ChannelMax = 22

	points := collectSweep(scan.NewSweep(opts))
	// 2频道 x (T, T2)
	assert.Equal(t, 4, len(points))
	assert.Equal(t, dvb.SysDvbt, points[0].Delsys)
	assert.Equal(t, uint32(474000000), points[0].Frequency)
	assert.Equal(t, uint32(8000000), points[0].Bandwidth)
	assert.Equal(t, uint32(482000000), points[1].Frequency)
	// T扫完整带后轮到T2
	assert.Equal(t, dvb.SysDvbt2, points[2].Delsys)
	assert.Equal(t, uint32(474000000), points[2].Frequency)
}

func TestSweepDvbt2Only(t *testing.T) {
	opts := scan.DefaultOptions()
	opts.DvbtType = scan.Dvbt2Only
	opts.ChannelMin = 21
	opts.ChannelMax = 21

	points := collectSweep(scan.NewSweep(opts))
	assert.Equal(t, 1, len(points))
	assert.Equal(t, dvb.SysDvbt2, points[0].Delsys)
}

func TestSweepOffsets(t *testing.T) {
	opts := scan.DefaultOptions()
	opts.Plan = chanlist.PlanForCountry("GB")
	opts.DvbtType = scan.DvbtOnly
	opts.ChannelMin = 21
	opts.ChannelMax = 21

	points := collectSweep(scan.NewSweep(opts))
	assert.Equal(t, 3, len(points))
	assert.Equal(t, uint32(474000000), points[0].Frequency)
	assert.Equal(t, uint32(474166670), points[1].Frequency)
	assert.Equal(t, uint32(473833330), points[2].Frequency)
	assert.Equal(t, 1, points[1].OffsetIndex)
}

func TestSweepCable(t *testing.T) {
	opts := scan.DefaultOptions()
	opts.Mode = scan.ModeCable
	opts.ChannelMin = 1
	opts.ChannelMax = 1

	points := collectSweep(scan.NewSweep(opts))
	// 符号率表 x (QAM64, QAM256)
	srs := chanlist.CableSymbolrates()
	assert.Equal(t, 2*len(srs), len(points))
	assert.Equal(t, dvb.SysDvbcAnnexA, points[0].Delsys)
	assert.Equal(t, dvb.Qam64, points[0].Modulation)
	assert.Equal(t, srs[0], points[0].Symbolrate)
	assert.Equal(t, srs[1], points[1].Symbolrate)
	assert.Equal(t, dvb.Qam256, points[len(srs)].Modulation)
}

func TestSweepAtsc(t *testing.T) {
	opts := scan.DefaultOptions()
	opts.Mode = scan.ModeAtsc
	opts.AtscType = scan.AtscBoth
	opts.ChannelMin = 2
	opts.ChannelMax = 2

	points := collectSweep(scan.NewSweep(opts))
	assert.Equal(t, 2, len(points))
	assert.Equal(t, dvb.Vsb8, points[0].Modulation)
	assert.Equal(t, dvb.Qam256, points[1].Modulation)
	assert.Equal(t, uint32(57000000), points[0].Frequency)
}

func TestSweepSkipsGaps(t *testing.T) {
	opts := scan.DefaultOptions()
	opts.Plan, _ = chanlist.PlanByName("EU-VHF-UHF")
	opts.DvbtType = scan.DvbtOnly

	points := collectSweep(scan.NewSweep(opts))
	// VHF 5~12共8个，UHF 21~69共49个，中间13~20是空洞
	assert.Equal(t, 8+49, len(points))
	assert.Equal(t, uint32(177500000), points[0].Frequency) // ch5: 142.5+5x7
	assert.Equal(t, uint32(7000000), points[0].Bandwidth)
	assert.Equal(t, uint32(474000000), points[8].Frequency)
}
