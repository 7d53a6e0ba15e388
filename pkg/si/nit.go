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
// Network information section
// <ETSI EN 300 468> <5.2.1>
// 通用头8字节，table_id_extension即network_id
// reserved                 [4b]
// network_descriptors_len  [12b] **
// descriptor loop
// reserved                 [4b]
// transport_stream_loop_len[12b] **
// -----loop-----
// transport_stream_id      [16b] **
// original_network_id      [16b] **
// reserved                 [4b]
// transport_descriptors_len[12b] **
// descriptor loop
// --------------
// CRC_32                   [32b] ****
// ---------------------------------------------------------------------------------------------------
type Nit struct {
	SectionHeader
	NetworkDescriptors []Descriptor
	Transports         []NitTransportElement
}

type NitTransportElement struct {
	TransportStreamId uint16
	OriginalNetworkId uint16
	Descriptors       []Descriptor
}

func (nit *Nit) NetworkId() uint16 {
	return nit.TableIdExtension
}

func (nit *Nit) IsActual() bool {
	return nit.TableId == TableIdNitActual
}

func ParseNit(b []byte) (nit Nit, err error) {
	nit.SectionHeader, err = ParseSectionHeader(b)
	if err != nil {
		return nit, err
	}
	if nit.TableId != TableIdNitActual && nit.TableId != TableIdNitOther {
		return nit, base.ErrSiTableId
	}
	if len(b) < 12 {
		return nit, base.ErrShortBuffer
	}
	ndl := int(b[8]&0x0F)<<8 | int(b[9])
	pos := 10 + ndl
	if pos+2 > len(b)-4 {
		return nit, base.ErrSiLengthMismatch
	}
	nit.NetworkDescriptors = ParseDescriptors(b[10:pos])

	tsl := int(b[pos]&0x0F)<<8 | int(b[pos+1])
	pos += 2
	end := pos + tsl
	if end > len(b)-4 {
		return nit, base.ErrSiLengthMismatch
	}
	for pos+6 <= end {
		var te NitTransportElement
		te.TransportStreamId = uint16(b[pos])<<8 | uint16(b[pos+1])
		te.OriginalNetworkId = uint16(b[pos+2])<<8 | uint16(b[pos+3])
		tdl := int(b[pos+4]&0x0F)<<8 | int(b[pos+5])
		pos += 6
		if pos+tdl > end {
			return nit, base.ErrSiLengthMismatch
		}
		te.Descriptors = ParseDescriptors(b[pos : pos+tdl])
		pos += tdl
		nit.Transports = append(nit.Transports, te)
	}
	return nit, nil
}
