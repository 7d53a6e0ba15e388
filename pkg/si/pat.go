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

// ---------------------------------------------------------------------------------------------------
// Program association section
// <iso13818-1.pdf> <2.4.4.3> <page 61/174>
// 通用头8字节，见section.go
// -----loop-----
// program_number           [16b] **
// reserved                 [3b]
// program_map_PID          [13b] ** program_number为0时是network_PID
// --------------
// CRC_32                   [32b] ****
// ---------------------------------------------------------------------------------------------------
type Pat struct {
	SectionHeader
	Programs   []PatProgramElement
	NetworkPid uint16 // 0表示未出现
}

type PatProgramElement struct {
	ProgramNumber uint16
	PmtPid        uint16
}

// TransportStreamId PAT的table_id_extension即所在流的transport_stream_id
func (pat *Pat) TransportStreamId() uint16 {
	return pat.TableIdExtension
}

// ParsePat b为长度已校验过的完整section
func ParsePat(b []byte) (pat Pat, err error) {
	pat.SectionHeader, err = ParseSectionHeader(b)
	if err != nil {
		return pat, err
	}
	if pat.TableId != TableIdPat {
		return pat, base.ErrSiTableId
	}
	br := nazabits.NewBitReader(b[8:])
	length := int(pat.SectionLength) - 9
	for i := 0; i+3 < length; i += 4 {
		var pe PatProgramElement
		pe.ProgramNumber, _ = br.ReadBits16(16)
		_, _ = br.ReadBits8(3)
		pe.PmtPid, _ = br.ReadBits16(13)
		if pe.ProgramNumber == 0 {
			pat.NetworkPid = pe.PmtPid
			continue
		}
		pat.Programs = append(pat.Programs, pe)
	}
	return pat, nil
}
