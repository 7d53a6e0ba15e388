// Copyright 2024, Chef.  All rights reserved.
// https://github.com/q191201771/dvbscan
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package si

import (
	"github.com/q191201771/dvbscan/pkg/base"
	"github.com/q191201771/naza/pkg/nazabits"
)

// 固定PID
const (
	PidPat = 0x0000
	PidNit = 0x0010
	PidSdt = 0x0011
	PidVct = 0x1FF8
)

// table_id
const (
	TableIdPat       = 0x00
	TableIdPmt       = 0x02
	TableIdNitActual = 0x40
	TableIdNitOther  = 0x41
	TableIdSdtActual = 0x42
	TableIdSdtOther  = 0x46
	TableIdTvct      = 0xC8
	TableIdCvct      = 0xC9
)

// 带section_syntax_indicator的section，头8字节加尾部CRC共12字节
const minSectionSize = 12

// ---------------------------------------------------------------------------------------------------
// 长格式section通用头
// <iso13818-1.pdf> <2.4.4.11> <page 68/174>
// table_id                 [8b]  *
// section_syntax_indicator [1b]
// '0'/private_indicator    [1b]
// reserved                 [2b]
// section_length           [12b] **
// table_id_extension       [16b] **
// reserved                 [2b]
// version_number           [5b]
// current_next_indicator   [1b]  *
// section_number           [8b]  *
// last_section_number      [8b]  *
// ---------------------------------------------------------------------------------------------------
type SectionHeader struct {
	TableId              uint8
	SectionSyntax        uint8
	SectionLength        uint16
	TableIdExtension     uint16
	VersionNumber        uint8
	CurrentNextIndicator uint8
	SectionNumber        uint8
	LastSectionNumber    uint8
}

func ParseSectionHeader(b []byte) (h SectionHeader, err error) {
	if len(b) < 8 {
		return h, base.ErrShortBuffer
	}
	br := nazabits.NewBitReader(b)
	h.TableId, _ = br.ReadBits8(8)
	h.SectionSyntax, _ = br.ReadBits8(1)
	_, _ = br.ReadBits8(3)
	h.SectionLength, _ = br.ReadBits16(12)
	h.TableIdExtension, _ = br.ReadBits16(16)
	_, _ = br.ReadBits8(2)
	h.VersionNumber, _ = br.ReadBits8(5)
	h.CurrentNextIndicator, _ = br.ReadBits8(1)
	h.SectionNumber, _ = br.ReadBits8(8)
	h.LastSectionNumber, _ = br.ReadBits8(8)
	return h, nil
}

// TrimSection 校验section并按section_length截取。
//
// 读到的缓冲可能比section本体长，多出的部分丢弃；
// 缓冲比section_length短、或CRC校验失败时整个section作废
//
func TrimSection(b []byte) ([]byte, error) {
	if len(b) < minSectionSize {
		return nil, base.ErrShortBuffer
	}
	total := 3 + (int(b[1]&0x0F)<<8 | int(b[2]))
	if total < minSectionSize {
		return nil, base.ErrSiLengthMismatch
	}
	if total > len(b) {
		return nil, base.ErrSiLengthMismatch
	}
	b = b[:total]
	if !base.CheckCrc32(b) {
		return nil, base.ErrSiCrc
	}
	return b, nil
}
