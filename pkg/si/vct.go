// Copyright 2024, Chef.  All rights reserved.
// https://github.com/q191201771/dvbscan
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package si

import (
	"unicode/utf16"

	"github.com/q191201771/dvbscan/pkg/base"
	"github.com/q191201771/naza/pkg/nazabits"
)

// ATSC service_type
const (
	AtscServiceAnalog    = 0x01
	AtscServiceDigitalTv = 0x02
	AtscServiceAudio     = 0x03
)

// ---------------------------------------------------------------------------------------------------
// Terrestrial/Cable virtual channel table
// <ATSC A/65> <6.3>
// 通用头8字节，table_id_extension即transport_stream_id
// protocol_version         [8b]
// num_channels_in_section  [8b]  *
// -----loop-----
// short_name               [7x16b] * UTF-16BE
// reserved                 [4b]
// major_channel_number     [10b] **
// minor_channel_number     [10b] **
// modulation_mode          [8b]  *
// carrier_frequency        [32b] **
// channel_TSID             [16b] **
// program_number           [16b] **
// ETM_location             [2b]
// access_controlled        [1b]  *
// hidden                   [1b]  *
// path_select/out_of_band  [2b]    仅cable有意义
// hide_guide               [1b]
// reserved                 [3b]
// service_type             [6b]  *
// source_id                [16b] **
// reserved                 [6b]
// descriptors_length       [10b] **
// descriptor loop
// --------------
// additional_descriptors_length [10b] + loop
// CRC_32                   [32b] ****
// ---------------------------------------------------------------------------------------------------
type Vct struct {
	SectionHeader
	ProtocolVersion uint8
	Channels        []VctChannelElement
}

type VctChannelElement struct {
	ShortName        string
	MajorNumber      uint16
	MinorNumber      uint16
	ModulationMode   uint8
	CarrierFrequency uint32
	ChannelTsid      uint16
	ProgramNumber    uint16
	AccessControlled bool
	Hidden           bool
	ServiceType      uint8
	SourceId         uint16
	Descriptors      []Descriptor
}

func (vct *Vct) TransportStreamId() uint16 {
	return vct.TableIdExtension
}

func (vct *Vct) IsCable() bool {
	return vct.TableId == TableIdCvct
}

func ParseVct(b []byte) (vct Vct, err error) {
	vct.SectionHeader, err = ParseSectionHeader(b)
	if err != nil {
		return vct, err
	}
	if vct.TableId != TableIdTvct && vct.TableId != TableIdCvct {
		return vct, base.ErrSiTableId
	}
	if len(b) < 14 {
		return vct, base.ErrShortBuffer
	}
	vct.ProtocolVersion = b[8]
	num := int(b[9])
	pos := 10
	for i := 0; i < num; i++ {
		if pos+32 > len(b)-4 {
			return vct, base.ErrSiLengthMismatch
		}
		var ce VctChannelElement
		ce.ShortName = decodeVctShortName(b[pos : pos+14])
		br := nazabits.NewBitReader(b[pos+14:])
		_, _ = br.ReadBits8(4)
		ce.MajorNumber, _ = br.ReadBits16(10)
		ce.MinorNumber, _ = br.ReadBits16(10)
		ce.ModulationMode, _ = br.ReadBits8(8)
		ce.CarrierFrequency, _ = br.ReadBits32(32)
		ce.ChannelTsid, _ = br.ReadBits16(16)
		ce.ProgramNumber, _ = br.ReadBits16(16)
		_, _ = br.ReadBits8(2)
		ac, _ := br.ReadBits8(1)
		ce.AccessControlled = ac != 0
		hd, _ := br.ReadBits8(1)
		ce.Hidden = hd != 0
		// path_select/out_of_band/hide_guide + reserved
		_, _ = br.ReadBits8(6)
		ce.ServiceType, _ = br.ReadBits8(6)
		ce.SourceId, _ = br.ReadBits16(16)
		dl16, _ := br.ReadBits16(16)
		dl := int(dl16 & 0x03FF)
		pos += 32
		if pos+dl > len(b)-4 {
			return vct, base.ErrSiLengthMismatch
		}
		ce.Descriptors = ParseDescriptors(b[pos : pos+dl])
		pos += dl
		vct.Channels = append(vct.Channels, ce)
	}
	return vct, nil
}

func decodeVctShortName(b []byte) string {
	u := make([]uint16, 0, 7)
	for i := 0; i+1 < len(b); i += 2 {
		c := uint16(b[i])<<8 | uint16(b[i+1])
		if c == 0 {
			break
		}
		u = append(u, c)
	}
	return string(utf16.Decode(u))
}
