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
)

// ---------------------------------------------------------------------------------------------------
// Service description section
// <ETSI EN 300 468> <5.2.3>
// 通用头8字节，table_id_extension即transport_stream_id
// original_network_id      [16b] **
// reserved                 [8b]
// -----loop-----
// service_id               [16b] **
// reserved                 [6b]
// EIT_schedule_flag        [1b]
// EIT_pf_flag              [1b]
// running_status           [3b]  *
// free_CA_mode             [1b]  *
// descriptors_loop_length  [12b] **
// descriptor loop
// --------------
// CRC_32                   [32b] ****
// ---------------------------------------------------------------------------------------------------
type Sdt struct {
	SectionHeader
	OriginalNetworkId uint16
	Services          []SdtServiceElement
}

type SdtServiceElement struct {
	ServiceId        uint16
	EitScheduleFlag  uint8
	EitPfFlag        uint8
	RunningStatus    uint8
	FreeCaMode       uint8
	Descriptors      []Descriptor
}

func (sdt *Sdt) TransportStreamId() uint16 {
	return sdt.TableIdExtension
}

func (sdt *Sdt) IsActual() bool {
	return sdt.TableId == TableIdSdtActual
}

func ParseSdt(b []byte) (sdt Sdt, err error) {
	sdt.SectionHeader, err = ParseSectionHeader(b)
	if err != nil {
		return sdt, err
	}
	if sdt.TableId != TableIdSdtActual && sdt.TableId != TableIdSdtOther {
		return sdt, base.ErrSiTableId
	}
	if len(b) < 15 {
		return sdt, base.ErrShortBuffer
	}
	sdt.OriginalNetworkId = uint16(b[8])<<8 | uint16(b[9])
	pos := 11
	end := len(b) - 4
	for pos+5 <= end {
		var se SdtServiceElement
		se.ServiceId = uint16(b[pos])<<8 | uint16(b[pos+1])
		se.EitScheduleFlag = b[pos+2] >> 1 & 0x1
		se.EitPfFlag = b[pos+2] & 0x1
		se.RunningStatus = b[pos+3] >> 5
		se.FreeCaMode = b[pos+3] >> 4 & 0x1
		dl := int(b[pos+3]&0x0F)<<8 | int(b[pos+4])
		pos += 5
		if pos+dl > end {
			return sdt, base.ErrSiLengthMismatch
		}
		se.Descriptors = ParseDescriptors(b[pos : pos+dl])
		pos += dl
		sdt.Services = append(sdt.Services, se)
	}
	return sdt, nil
}
