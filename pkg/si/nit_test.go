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

func makeNitBody(networkDescs []byte, transports []byte) []byte {
	var body []byte
	body = append(body, 0xF0|uint8(len(networkDescs)>>8), uint8(len(networkDescs)))
	body = append(body, networkDescs...)
	body = append(body, 0xF0|uint8(len(transports)>>8), uint8(len(transports)))
	body = append(body, transports...)
	return body
}

func makeNitTransport(tsid uint16, onid uint16, descs []byte) []byte {
	out := []byte{
		uint8(tsid >> 8), uint8(tsid),
		uint8(onid >> 8), uint8(onid),
		0xF0 | uint8(len(descs)>>8), uint8(len(descs)),
	}
	return append(out, descs...)
}

func TestParseNit(t *testing.T) {
	nameDesc := []byte{si.DescriptorTagNetworkName, 0x04, 'T', 'e', 's', 't'}
	tdDesc := si.BuildTerrestrialDeliveryDescriptor(si.TerrestrialDeliveryDescriptor{
		CentreFrequency: 474000000,
		Bandwidth:       8000000,
		Constellation:   dvb.Qam64,
		Hierarchy:       dvb.HierarchyNone,
		CodeRateHp:      dvb.Fec23,
		CodeRateLp:      dvb.Fec12,
		Guard:           dvb.Guard4,
		Transmission:    dvb.Transmission8k,
	})
	transports := makeNitTransport(0x0044, 0x2114, tdDesc)
	body := makeNitBody(nameDesc, transports)
	sec := makeSection(si.TableIdNitActual, 0x3001, 2, 0, 0, body)

	nit, err := si.ParseNit(sec)
	assert.Equal(t, nil, err)
	assert.Equal(t, uint16(0x3001), nit.NetworkId())
	assert.Equal(t, true, nit.IsActual())

	assert.Equal(t, 1, len(nit.NetworkDescriptors))
	assert.Equal(t, "Test", si.DecodeNetworkNameDescriptor(nit.NetworkDescriptors[0]))

	assert.Equal(t, 1, len(nit.Transports))
	te := nit.Transports[0]
	assert.Equal(t, uint16(0x0044), te.TransportStreamId)
	assert.Equal(t, uint16(0x2114), te.OriginalNetworkId)
	d, ok := si.FindDescriptor(te.Descriptors, si.DescriptorTagTerrestrial)
	assert.Equal(t, true, ok)
	td, err := si.DecodeTerrestrialDeliveryDescriptor(d)
	assert.Equal(t, nil, err)
	assert.Equal(t, uint32(474000000), td.CentreFrequency)
	assert.Equal(t, uint32(8000000), td.Bandwidth)
	assert.Equal(t, dvb.Qam64, td.Constellation)
	assert.Equal(t, dvb.Fec23, td.CodeRateHp)
}

func TestParseNitOther(t *testing.T) {
	body := makeNitBody(nil, makeNitTransport(1, 1, nil))
	sec := makeSection(si.TableIdNitOther, 0x3002, 0, 0, 0, body)
	nit, err := si.ParseNit(sec)
	assert.Equal(t, nil, err)
	assert.Equal(t, false, nit.IsActual())
	assert.Equal(t, 1, len(nit.Transports))
}
