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

	"github.com/q191201771/dvbscan/pkg/dvb"
	"github.com/q191201771/dvbscan/pkg/si"
	"github.com/q191201771/naza/pkg/assert"
)

func parseOne(t *testing.T, raw []byte) si.Descriptor {
	ds := si.ParseDescriptors(raw)
	assert.Equal(t, 1, len(ds))
	return ds[0]
}

func TestCableDeliveryRoundTrip(t *testing.T) {
	want := si.CableDeliveryDescriptor{
		Frequency:  346000000,
		Modulation: dvb.Qam256,
		SymbolRate: 6900000,
		InnerFec:   dvb.Fec34,
	}
	d := parseOne(t, si.BuildCableDeliveryDescriptor(want))
	assert.Equal(t, uint8(si.DescriptorTagCable), d.Tag)
	got, err := si.DecodeCableDeliveryDescriptor(d)
	assert.Equal(t, nil, err)
	assert.Equal(t, want, got)
}

func TestT2DeliveryShortForm(t *testing.T) {
	d := parseOne(t, si.BuildT2DeliveryDescriptor(si.T2DeliveryDescriptor{
		PlpId:      3,
		T2SystemId: 0x1F2E,
	}))
	assert.Equal(t, uint8(si.DescriptorTagExtension), d.Tag)
	assert.Equal(t, si.ExtensionTagT2Delivery, d.ExtensionTag())
	got, err := si.DecodeT2DeliveryDescriptor(d)
	assert.Equal(t, nil, err)
	assert.Equal(t, uint8(3), got.PlpId)
	assert.Equal(t, uint16(0x1F2E), got.T2SystemId)
	assert.Equal(t, false, got.HasExtension)
	assert.Equal(t, 0, len(got.Cells))
}

func TestDecodeLogicalChannelDescriptor(t *testing.T) {
	d := parseOne(t, []byte{
		si.DescriptorTagLogicalChannel, 0x08,
		0x01, 0x01, 0xFC | 0x80, 0x05, // sid 0x101可见，LCN 5
		0x01, 0x02, 0x7C | 0x01, 0x00, // sid 0x102隐藏，LCN 256
	})
	lcs := si.DecodeLogicalChannelDescriptor(d)
	assert.Equal(t, 2, len(lcs))
	assert.Equal(t, uint16(0x0101), lcs[0].ServiceId)
	assert.Equal(t, true, lcs[0].Visible)
	assert.Equal(t, uint16(5), lcs[0].ChannelNumber)
	assert.Equal(t, false, lcs[1].Visible)
	assert.Equal(t, uint16(256), lcs[1].ChannelNumber)
}

func TestDecodeFrequencyListDescriptor(t *testing.T) {
	// terrestrial编码，单位10Hz
	d := parseOne(t, []byte{
		si.DescriptorTagFrequencyList, 0x09, 0xFC | si.FrequencyCodingTerrestrial,
		0x02, 0xD3, 0x44, 0x40, // 47400000 -> 474MHz
		0x02, 0xDF, 0x79, 0x40, // 48200000 -> 482MHz
	})
	fl, err := si.DecodeFrequencyListDescriptor(d)
	assert.Equal(t, nil, err)
	assert.Equal(t, uint8(si.FrequencyCodingTerrestrial), fl.CodingType)
	assert.Equal(t, []uint32{474000000, 482000000}, fl.Frequencies)
}

func TestDecodeCaIdentifierDescriptor(t *testing.T) {
	d := parseOne(t, []byte{si.DescriptorTagCaIdentifier, 0x04, 0x06, 0x04, 0x17, 0x22})
	ids := si.DecodeCaIdentifierDescriptor(d)
	assert.Equal(t, []uint16{0x0604, 0x1722}, ids)
}

func TestDecodeSubtitlingDescriptor(t *testing.T) {
	d := parseOne(t, []byte{
		si.DescriptorTagSubtitling, 0x08,
		'd', 'e', 'u', 0x10, 0x00, 0x01, 0x00, 0x02,
	})
	items := si.DecodeSubtitlingDescriptor(d)
	assert.Equal(t, 1, len(items))
	assert.Equal(t, "deu", items[0].Language)
	assert.Equal(t, uint8(0x10), items[0].Type)
	assert.Equal(t, uint16(1), items[0].CompositionPageId)
	assert.Equal(t, uint16(2), items[0].AncillaryPageId)
}

func TestParseDescriptorsTruncated(t *testing.T) {
	// 描述符声明长度超出缓冲，整个loop丢弃
	ds := si.ParseDescriptors([]byte{si.DescriptorTagService, 0x10, 0x01})
	assert.Equal(t, 0, len(ds))
}

func TestDecodeText(t *testing.T) {
	// 默认表，纯ASCII
	assert.Equal(t, "Das Erste", si.DecodeText([]byte("Das Erste")))
	// 0x15前缀为UTF-8
	assert.Equal(t, "中文", si.DecodeText(append([]byte{0x15}, []byte("中文")...)))
	// 0x05前缀为ISO8859-9
	assert.Equal(t, "abc", si.DecodeText([]byte{0x05, 'a', 'b', 'c'}))
	// 控制字符0x8A换行转空格
	assert.Equal(t, "a b", si.DecodeText([]byte{'a', 0x8A, 'b'}))
	assert.Equal(t, "", si.DecodeText(nil))
}
