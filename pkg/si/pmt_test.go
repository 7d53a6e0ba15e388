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

func TestParsePmt(t *testing.T) {
	caDesc := []byte{si.DescriptorTagCa, 0x04, 0x06, 0x04, 0xE0 | 0x02, 0x00} // CA system 0x0604, pid 0x200
	langDesc := []byte{si.DescriptorTagIso639Language, 0x04, 'e', 'n', 'g', 0x00}
	ac3Desc := []byte{si.DescriptorTagAc3, 0x01, 0x00}

	var body []byte
	body = append(body, 0xE1, 0x00) // PCR 0x100
	body = append(body, 0xF0|uint8(len(caDesc)>>8), uint8(len(caDesc)))
	body = append(body, caDesc...)
	// 视频，无描述符
	body = append(body, si.StreamTypeVideoAvc, 0xE1, 0x00, 0xF0, 0x00)
	// 音频，带语言描述符
	body = append(body, si.StreamTypeAudioMpeg2, 0xE1, 0x01, 0xF0, uint8(len(langDesc)))
	body = append(body, langDesc...)
	// 私有PES，带AC-3描述符
	body = append(body, si.StreamTypePrivatePes, 0xE1, 0x02, 0xF0, uint8(len(ac3Desc)))
	body = append(body, ac3Desc...)

	sec := makeSection(si.TableIdPmt, 101, 3, 0, 0, body)
	pmt, err := si.ParsePmt(sec)
	assert.Equal(t, nil, err)
	assert.Equal(t, uint16(101), pmt.ProgramNumber())
	assert.Equal(t, uint16(0x100), pmt.PcrPid)

	assert.Equal(t, 1, len(pmt.Descriptors))
	ca, err := si.DecodeCaDescriptor(pmt.Descriptors[0])
	assert.Equal(t, nil, err)
	assert.Equal(t, uint16(0x0604), ca.CaSystemId)
	assert.Equal(t, uint16(0x200), ca.CaPid)

	assert.Equal(t, 3, len(pmt.Streams))
	assert.Equal(t, uint8(si.StreamTypeVideoAvc), pmt.Streams[0].StreamType)
	assert.Equal(t, uint16(0x100), pmt.Streams[0].Pid)
	assert.Equal(t, 0, len(pmt.Streams[0].Descriptors))

	assert.Equal(t, uint8(si.StreamTypeAudioMpeg2), pmt.Streams[1].StreamType)
	langs := si.DecodeIso639LanguageDescriptor(pmt.Streams[1].Descriptors[0])
	assert.Equal(t, 1, len(langs))
	assert.Equal(t, "eng", langs[0].Language)

	assert.Equal(t, uint8(si.StreamTypePrivatePes), pmt.Streams[2].StreamType)
	_, ok := si.FindDescriptor(pmt.Streams[2].Descriptors, si.DescriptorTagAc3)
	assert.Equal(t, true, ok)
}
