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

// stream_type，见<iso13818-1.pdf> <Table 2-29>及各扩展标准
const (
	StreamTypeVideoMpeg1 = 0x01
	StreamTypeVideoMpeg2 = 0x02
	StreamTypeAudioMpeg1 = 0x03
	StreamTypeAudioMpeg2 = 0x04
	StreamTypePrivatePes = 0x06
	StreamTypeAudioAac   = 0x0F
	StreamTypeAudioLatm  = 0x11
	StreamTypeVideoAvc   = 0x1B
	StreamTypeVideoHevc  = 0x24
	StreamTypeAudioAc3   = 0x81 // ATSC
)

// ---------------------------------------------------------------------------------------------------
// Program map section
// <iso13818-1.pdf> <2.4.4.8> <page 64/174>
// 通用头8字节，table_id_extension即program_number
// reserved                 [3b]
// PCR_PID                  [13b] **
// reserved                 [4b]
// program_info_length      [12b] **
// descriptor loop
// -----loop-----
// stream_type              [8b]  *
// reserved                 [3b]
// elementary_PID           [13b] **
// reserved                 [4b]
// ES_info_length           [12b] **
// descriptor loop
// --------------
// CRC_32                   [32b] ****
// ---------------------------------------------------------------------------------------------------
type Pmt struct {
	SectionHeader
	PcrPid      uint16
	Descriptors []Descriptor
	Streams     []PmtStreamElement
}

type PmtStreamElement struct {
	StreamType  uint8
	Pid         uint16
	Descriptors []Descriptor
}

func (pmt *Pmt) ProgramNumber() uint16 {
	return pmt.TableIdExtension
}

func ParsePmt(b []byte) (pmt Pmt, err error) {
	pmt.SectionHeader, err = ParseSectionHeader(b)
	if err != nil {
		return pmt, err
	}
	if pmt.TableId != TableIdPmt {
		return pmt, base.ErrSiTableId
	}
	br := nazabits.NewBitReader(b[8:])
	_, _ = br.ReadBits8(3)
	pmt.PcrPid, _ = br.ReadBits16(13)
	_, _ = br.ReadBits8(4)
	pil, _ := br.ReadBits16(12)
	pos := 12 + int(pil)
	if pos > len(b)-4 {
		return pmt, base.ErrSiLengthMismatch
	}
	pmt.Descriptors = ParseDescriptors(b[12:pos])

	for pos+4 < len(b)-4 {
		var se PmtStreamElement
		se.StreamType = b[pos]
		se.Pid = uint16(b[pos+1]&0x1F)<<8 | uint16(b[pos+2])
		esil := int(b[pos+3]&0x0F)<<8 | int(b[pos+4])
		pos += 5
		if pos+esil > len(b)-4 {
			return pmt, base.ErrSiLengthMismatch
		}
		se.Descriptors = ParseDescriptors(b[pos : pos+esil])
		pos += esil
		pmt.Streams = append(pmt.Streams, se)
	}
	return pmt, nil
}
