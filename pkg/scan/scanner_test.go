// Copyright 2024, Chef.  All rights reserved.
// https://github.com/q191201771/dvbscan
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package scan_test

import (
	"testing"
	"time"

	"github.com/q191201771/dvbscan/pkg/base"
	"github.com/q191201771/dvbscan/pkg/dvb"
	"github.com/q191201771/dvbscan/pkg/scan"
	"github.com/q191201771/dvbscan/pkg/si"
	"github.com/q191201771/naza/pkg/assert"
)

// stubFrontend 处处锁定(或处处失锁)的前端
type stubFrontend struct {
	lock     bool
	readback dvb.DeliverySystem // SysUndefined时回读请求的delsys
	tuned    []dvb.Tuning
}

func (f *stubFrontend) Info() dvb.Caps {
	return dvb.Caps{
		Name:         "stub",
		FrequencyMin: 44250000,
		FrequencyMax: 867250000,
		CapFlags: dvb.FeCanInversionAuto | dvb.FeCanFecAuto | dvb.FeCanQamAuto |
			dvb.FeCanTransmissionAuto | dvb.FeCanGuardIntervalAuto | dvb.FeCanHierarchyAuto,
		DeliverySystems: []dvb.DeliverySystem{dvb.SysDvbt, dvb.SysDvbt2},
	}
}

func (f *stubFrontend) Tune(t dvb.Tuning) error {
	f.tuned = append(f.tuned, t)
	return nil
}

func (f *stubFrontend) ReadStatus() (dvb.Status, error) {
	if !f.lock {
		return 0, nil
	}
	return dvb.FeHasSignal | dvb.FeHasCarrier | dvb.FeHasViterbi | dvb.FeHasSync | dvb.FeHasLock, nil
}

func (f *stubFrontend) ReadSignal() (dvb.Signal, error) {
	return dvb.Signal{
		Strength: dvb.SignalStat{Scale: dvb.ScaleRelative, Uvalue: 50000},
		Cnr:      dvb.SignalStat{Scale: dvb.ScaleDecibel, Svalue: 21000},
	}, nil
}

func (f *stubFrontend) CurrentDeliverySystem() (dvb.DeliverySystem, error) {
	if f.readback != dvb.SysUndefined {
		return f.readback, nil
	}
	if len(f.tuned) == 0 {
		return dvb.SysUndefined, nil
	}
	return f.tuned[len(f.tuned)-1].Delsys, nil
}

func (f *stubFrontend) Close() error { return nil }

type stubHandle struct {
	queue [][]byte
}

func (h *stubHandle) ReadSection(buf []byte) (int, error) {
	if len(h.queue) == 0 {
		return 0, nil
	}
	sec := h.queue[0]
	h.queue = h.queue[1:]
	return copy(buf, sec), nil
}

func (h *stubHandle) Close() error { return nil }

type tableKey struct {
	pid     uint16
	tableId uint8
}

// stubSource 无论调到哪个频点都吐同一组表，新开的过滤器拿到一份完整拷贝
type stubSource struct {
	tables map[tableKey][][]byte
}

func newStubSource() *stubSource {
	return &stubSource{tables: make(map[tableKey][][]byte)}
}

func (s *stubSource) serve(pid uint16, tableId uint8, sec []byte) {
	k := tableKey{pid: pid, tableId: tableId}
	s.tables[k] = append(s.tables[k], sec)
}

func (s *stubSource) OpenSectionFilter(pid uint16, tableId uint8, tableIdExt int, checkCrc bool) (dvb.SectionHandle, error) {
	h := &stubHandle{}
	for _, sec := range s.tables[tableKey{pid: pid, tableId: tableId}] {
		if tableIdExt >= 0 && int(sec[3])<<8|int(sec[4]) != tableIdExt {
			continue
		}
		h.queue = append(h.queue, sec)
	}
	return h, nil
}

func (s *stubSource) Wait(handles []dvb.SectionHandle, timeout time.Duration) ([]dvb.SectionHandle, error) {
	var ready []dvb.SectionHandle
	for _, h := range handles {
		if sh, ok := h.(*stubHandle); ok && len(sh.queue) > 0 {
			ready = append(ready, h)
		}
	}
	if len(ready) == 0 {
		time.Sleep(timeout)
	}
	return ready, nil
}

func (s *stubSource) Close() error { return nil }

func makeScanSection(tableId uint8, tableIdExt uint16, body []byte) []byte {
	length := len(body) + 5 + 4
	out := []byte{
		tableId, 0xB0 | uint8(length>>8), uint8(length),
		uint8(tableIdExt >> 8), uint8(tableIdExt),
		0xC1, 0, 0,
	}
	out = append(out, body...)
	crc := base.CalcCrc32(0xFFFFFFFF, out)
	return append(out, byte(crc>>24), byte(crc>>16), byte(crc>>8), byte(crc))
}

// servePsi 一个完整复用: PAT(服务0x65)、NIT(三元组0x2114/0x3001/0x0044)、SDT、PMT
func servePsi(src *stubSource) {
	patBody := []byte{
		0x00, 0x00, 0xE0, 0x10, // program 0 -> NIT pid
		0x00, 0x65, 0xE1, 0x00, // 服务0x65 -> PMT pid 0x100
	}
	src.serve(si.PidPat, si.TableIdPat, makeScanSection(si.TableIdPat, 0x0044, patBody))

	nameDesc := []byte{si.DescriptorTagNetworkName, 0x03, 'N', 'e', 't'}
	tdDesc := si.BuildTerrestrialDeliveryDescriptor(si.TerrestrialDeliveryDescriptor{
		CentreFrequency: 474000000,
		Bandwidth:       8000000,
		Constellation:   dvb.Qam64,
		Hierarchy:       dvb.HierarchyNone,
		CodeRateHp:      dvb.Fec23,
		CodeRateLp:      dvb.FecNone,
		Guard:           dvb.Guard8,
		Transmission:    dvb.Transmission8k,
	})
	transport := []byte{
		0x00, 0x44, 0x21, 0x14,
		0xF0 | uint8(len(tdDesc)>>8), uint8(len(tdDesc)),
	}
	transport = append(transport, tdDesc...)
	var nitBody []byte
	nitBody = append(nitBody, 0xF0|uint8(len(nameDesc)>>8), uint8(len(nameDesc)))
	nitBody = append(nitBody, nameDesc...)
	nitBody = append(nitBody, 0xF0|uint8(len(transport)>>8), uint8(len(transport)))
	nitBody = append(nitBody, transport...)
	src.serve(si.PidNit, si.TableIdNitActual, makeScanSection(si.TableIdNitActual, 0x3001, nitBody))

	svcDesc := si.BuildServiceDescriptor(si.ServiceDescriptor{
		Type:         0x01,
		ProviderName: "ARD",
		ServiceName:  "Das Erste",
	})
	var sdtBody []byte
	sdtBody = append(sdtBody, 0x21, 0x14, 0xFF)
	sdtBody = append(sdtBody, 0x00, 0x65, 0xFC, 4<<5|uint8(len(svcDesc)>>8), uint8(len(svcDesc)))
	sdtBody = append(sdtBody, svcDesc...)
	src.serve(si.PidSdt, si.TableIdSdtActual, makeScanSection(si.TableIdSdtActual, 0x0044, sdtBody))

	langDesc := []byte{si.DescriptorTagIso639Language, 0x04, 'd', 'e', 'u', 0x00}
	var pmtBody []byte
	pmtBody = append(pmtBody, 0xE1, 0x31, 0xF0, 0x00) // PCR 0x131
	pmtBody = append(pmtBody, si.StreamTypeVideoMpeg2, 0xE1, 0x31, 0xF0, 0x00)
	pmtBody = append(pmtBody, si.StreamTypeAudioMpeg2, 0xE1, 0x32, 0xF0, uint8(len(langDesc)))
	pmtBody = append(pmtBody, langDesc...)
	src.serve(0x0100, si.TableIdPmt, makeScanSection(si.TableIdPmt, 0x0065, pmtBody))
}

func terrOptions(chMin int, chMax int) scan.Options {
	opts := scan.DefaultOptions()
	opts.DvbtType = scan.DvbtOnly
	opts.ChannelMin = chMin
	opts.ChannelMax = chMax
	return opts
}

func TestScanSingleMultiplex(t *testing.T) {
	fe := &stubFrontend{lock: true}
	src := newStubSource()
	servePsi(src)

	sc := scan.NewScanner(fe, src, terrOptions(21, 21))
	assert.Equal(t, nil, sc.Run())
	db := sc.Db()
	assert.Equal(t, 1, len(db.Scanned))
	assert.Equal(t, 1, len(db.Output))

	tp := db.Output[0]
	assert.Equal(t, uint32(474000000), tp.Frequency)
	assert.Equal(t, uint16(0x0044), tp.TransportStreamId)
	assert.Equal(t, uint16(0x2114), tp.OriginalNetworkId)
	assert.Equal(t, uint16(0x3001), tp.NetworkId)
	assert.Equal(t, "Net", tp.NetworkName)

	assert.Equal(t, 1, len(tp.Services))
	svc := tp.Services[0]
	assert.Equal(t, uint16(0x65), svc.ServiceId)
	assert.Equal(t, "Das Erste", svc.Name)
	assert.Equal(t, "ARD", svc.ProviderName)
	assert.Equal(t, uint16(0x100), svc.PmtPid)
	assert.Equal(t, uint16(0x131), svc.VideoPid)
	assert.Equal(t, 1, len(svc.Audio))
	assert.Equal(t, "deu", svc.Audio[0].Lang)
	assert.Equal(t, true, svc.SeenPat)
	assert.Equal(t, true, svc.SeenSdt)
	assert.Equal(t, true, svc.SeenPmt)
}

// 锁上了但收不到PAT的载波进Scanned不进Output
func TestScanNoPatDiscards(t *testing.T) {
	fe := &stubFrontend{lock: true}
	src := newStubSource()

	sc := scan.NewScanner(fe, src, terrOptions(21, 21))
	assert.Equal(t, nil, sc.Run())
	assert.Equal(t, 1, len(sc.Db().Scanned))
	assert.Equal(t, 0, len(sc.Db().Output))
}

// 回读的delivery system与请求不一致时整个频点放弃，连Scanned都不进
func TestScanDeliveryReadbackMismatch(t *testing.T) {
	fe := &stubFrontend{lock: true, readback: dvb.SysDvbt2}
	src := newStubSource()
	servePsi(src)

	sc := scan.NewScanner(fe, src, terrOptions(21, 21))
	assert.Equal(t, nil, sc.Run())
	assert.Equal(t, 0, len(sc.Db().Scanned))
	assert.Equal(t, 0, len(sc.Db().Output))
}

// 两个频点吐出同一复用(三元组相同)，按去重级别收敛
func TestScanDedupLevels(t *testing.T) {
	cases := []struct {
		dedup  scan.DedupLevel
		output int
	}{
		{dedup: scan.DedupNone, output: 2},
		{dedup: scan.DedupEarly, output: 1},
		{dedup: scan.DedupLate, output: 1},
	}
	for _, c := range cases {
		fe := &stubFrontend{lock: true}
		src := newStubSource()
		servePsi(src)

		opts := terrOptions(21, 22)
		opts.Dedup = c.dedup
		sc := scan.NewScanner(fe, src, opts)
		assert.Equal(t, nil, sc.Run())
		assert.Equal(t, 2, len(sc.Db().Scanned))
		assert.Equal(t, c.output, len(sc.Db().Output))

		second := sc.Db().Scanned[1]
		assert.Equal(t, 1, len(second.Services))
		switch c.dedup {
		case scan.DedupEarly:
			// 初始查询后即放弃，没做服务扫描
			assert.Equal(t, false, second.Services[0].SeenSdt)
		case scan.DedupLate:
			// 完整收表后才丢弃
			assert.Equal(t, true, second.Services[0].SeenSdt)
		}
	}
}
