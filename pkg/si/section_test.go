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

	"github.com/q191201771/dvbscan/pkg/base"
	"github.com/q191201771/dvbscan/pkg/si"
	"github.com/q191201771/naza/pkg/assert"
)

// makeSection 组一个完整的长格式section，自动算section_length和CRC
func makeSection(tableId uint8, tableIdExt uint16, version uint8, sn uint8, lsn uint8, body []byte) []byte {
	length := len(body) + 5 + 4
	out := []byte{
		tableId,
		0xB0 | uint8(length>>8),
		uint8(length),
		uint8(tableIdExt >> 8),
		uint8(tableIdExt),
		0xC0 | version<<1 | 0x01,
		sn,
		lsn,
	}
	out = append(out, body...)
	crc := base.CalcCrc32(0xFFFFFFFF, out)
	return append(out, byte(crc>>24), byte(crc>>16), byte(crc>>8), byte(crc))
}

func TestParseSectionHeader(t *testing.T) {
	sec := makeSection(0x42, 0x1234, 5, 1, 2, []byte{0xAA, 0xBB, 0xCC})
	h, err := si.ParseSectionHeader(sec)
	assert.Equal(t, nil, err)
	assert.Equal(t, uint8(0x42), h.TableId)
	assert.Equal(t, uint8(1), h.SectionSyntax)
	assert.Equal(t, uint16(len(sec)-3), h.SectionLength)
	assert.Equal(t, uint16(0x1234), h.TableIdExtension)
	assert.Equal(t, uint8(5), h.VersionNumber)
	assert.Equal(t, uint8(1), h.CurrentNextIndicator)
	assert.Equal(t, uint8(1), h.SectionNumber)
	assert.Equal(t, uint8(2), h.LastSectionNumber)

	_, err = si.ParseSectionHeader(sec[:7])
	assert.Equal(t, base.ErrShortBuffer, err)
}

func TestTrimSection(t *testing.T) {
	sec := makeSection(0x00, 1, 0, 0, 0, []byte{0x00, 0x01, 0xE0, 0x20})

	// 正常截取
	got, err := si.TrimSection(sec)
	assert.Equal(t, nil, err)
	assert.Equal(t, len(sec), len(got))

	// 缓冲比section长时多余部分被丢弃
	padded := append(append([]byte{}, sec...), 0xFF, 0xFF, 0xFF)
	got, err = si.TrimSection(padded)
	assert.Equal(t, nil, err)
	assert.Equal(t, len(sec), len(got))

	// 缓冲不足
	_, err = si.TrimSection(sec[:8])
	assert.Equal(t, base.ErrShortBuffer, err)

	// section_length超出缓冲
	_, err = si.TrimSection(sec[:len(sec)-1])
	assert.Equal(t, base.ErrSiLengthMismatch, err)

	// CRC坏
	bad := append([]byte{}, sec...)
	bad[9] ^= 0x40
	_, err = si.TrimSection(bad)
	assert.Equal(t, base.ErrSiCrc, err)
}
