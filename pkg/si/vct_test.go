// Copyright 2024, Chef.  All rights reserved.
// https://github.com/q191201771/dvbscan
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package si_test

import (
	"testing"

	"github.com/q191201771/dvbscan/pkg/si"
	"github.com/q191201771/naza/pkg/assert"
)

func TestParseVct(t *testing.T) {
	record := []byte{
		// short_name "HBO"，UTF-16BE补零
		0x00, 'H', 0x00, 'B', 0x00, 'O', 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		// reserved(4) major=5(10) minor=1(10)
		0xF0, 0x14, 0x01,
		// modulation_mode 8VSB
		0x04,
		// carrier_frequency
		0x00, 0x00, 0x00, 0x00,
		// channel_TSID
		0x08, 0x01,
		// program_number
		0x00, 0x03,
		// ETM=0 access_controlled=1 hidden=0 path/oob/hide_guide=0 reserved=111 service_type=2
		0x21, 0xC2,
		// source_id
		0x00, 0x01,
		// reserved(6) descriptors_length=0(10)
		0xFC, 0x00,
	}
	body := append([]byte{0x00, 0x01}, record...)
	sec := makeSection(si.TableIdTvct, 0x0801, 0, 0, 0, body)

	vct, err := si.ParseVct(sec)
	assert.Equal(t, nil, err)
	assert.Equal(t, uint16(0x0801), vct.TransportStreamId())
	assert.Equal(t, false, vct.IsCable())
	assert.Equal(t, uint8(0), vct.ProtocolVersion)
	assert.Equal(t, 1, len(vct.Channels))

	ce := vct.Channels[0]
	assert.Equal(t, "HBO", ce.ShortName)
	assert.Equal(t, uint16(5), ce.MajorNumber)
	assert.Equal(t, uint16(1), ce.MinorNumber)
	assert.Equal(t, uint8(0x04), ce.ModulationMode)
	assert.Equal(t, uint16(0x0801), ce.ChannelTsid)
	assert.Equal(t, uint16(3), ce.ProgramNumber)
	assert.Equal(t, true, ce.AccessControlled)
	assert.Equal(t, false, ce.Hidden)
	assert.Equal(t, uint8(si.AtscServiceDigitalTv), ce.ServiceType)
	assert.Equal(t, uint16(1), ce.SourceId)
	assert.Equal(t, 0, len(ce.Descriptors))
}
