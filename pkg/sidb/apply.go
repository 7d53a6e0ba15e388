// Copyright 2024, Chef.  All rights reserved.
// https://github.com/q191201771/dvbscan
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package sidb

import (
	"github.com/q191201771/dvbscan/pkg/si"
)

// PmtRequest PAT解析产物，由调度方为每个服务装一个一次性PMT过滤器
type PmtRequest struct {
	ServiceId uint16
	PmtPid    uint16
}

// ApplyPat 把PAT合并进transponder。
// 返回待装PMT过滤器的服务列表和NIT PID(program_number为0的表项，0表示未出现)
func ApplyPat(t *Transponder, pat *si.Pat) (requests []PmtRequest, networkPid uint16) {
	t.TransportStreamId = pat.TransportStreamId()
	t.Source |= SourcePat
	for _, pe := range pat.Programs {
		s := AllocService(t, pe.ProgramNumber)
		s.PmtPid = pe.PmtPid
		s.SeenPat = true
		requests = append(requests, PmtRequest{ServiceId: pe.ProgramNumber, PmtPid: pe.PmtPid})
	}
	return requests, pat.NetworkPid
}

// ApplyPmt 流分类。视频槽位单值先到先得，音频类槽位有界
func ApplyPmt(s *Service, pmt *si.Pmt) {
	// PMT是全量表，版本更新重新应用时覆盖而不是累加
	s.VideoPid = 0
	s.VideoStreamType = 0
	s.Audio = nil
	s.Ac3 = nil
	s.TeletextPid = 0
	s.Subtitling = nil

	s.PcrPid = pmt.PcrPid
	s.SeenPmt = true
	applyCaDescriptors(s, pmt.Descriptors)

	for _, es := range pmt.Streams {
		applyCaDescriptors(s, es.Descriptors)
		switch es.StreamType {
		case si.StreamTypeVideoMpeg1, si.StreamTypeVideoMpeg2,
			si.StreamTypeVideoAvc, si.StreamTypeVideoHevc:
			if s.VideoPid == 0 {
				s.VideoPid = es.Pid
				s.VideoStreamType = es.StreamType
			}
		case si.StreamTypeAudioMpeg1, si.StreamTypeAudioMpeg2,
			si.StreamTypeAudioAac, si.StreamTypeAudioLatm:
			s.addAudio(AudioPid{Pid: es.Pid, Lang: esLanguage(es.Descriptors), StreamType: es.StreamType})
		case si.StreamTypeAudioAc3:
			s.addAc3(AudioPid{Pid: es.Pid, Lang: esLanguage(es.Descriptors), StreamType: es.StreamType})
		case si.StreamTypePrivatePes:
			applyPrivatePes(s, es)
		default:
			Log.Debugf("ignore stream type. serviceId=%d, streamType=0x%02X, pid=%d",
				s.ServiceId, es.StreamType, es.Pid)
		}
	}
}

// applyPrivatePes private PES靠descriptor判别负载类型
func applyPrivatePes(s *Service, es si.PmtStreamElement) {
	if _, ok := si.FindDescriptor(es.Descriptors, si.DescriptorTagAc3); ok {
		s.addAc3(AudioPid{Pid: es.Pid, Lang: esLanguage(es.Descriptors), StreamType: es.StreamType})
		return
	}
	if _, ok := si.FindDescriptor(es.Descriptors, si.DescriptorTagEnhancedAc3); ok {
		s.addAc3(AudioPid{Pid: es.Pid, Lang: esLanguage(es.Descriptors), StreamType: es.StreamType})
		return
	}
	if _, ok := si.FindDescriptor(es.Descriptors, si.DescriptorTagTeletext); ok {
		if s.TeletextPid == 0 {
			s.TeletextPid = es.Pid
		}
		return
	}
	if d, ok := si.FindDescriptor(es.Descriptors, si.DescriptorTagSubtitling); ok {
		items := si.DecodeSubtitlingDescriptor(d)
		lang := ""
		if len(items) > 0 {
			lang = items[0].Language
		}
		s.addSubtitling(SubtitlingPid{Pid: es.Pid, Lang: lang})
	}
}

func esLanguage(ds []si.Descriptor) string {
	d, ok := si.FindDescriptor(ds, si.DescriptorTagIso639Language)
	if !ok {
		return ""
	}
	langs := si.DecodeIso639LanguageDescriptor(d)
	if len(langs) == 0 {
		return ""
	}
	return langs[0].Language
}

func applyCaDescriptors(s *Service, ds []si.Descriptor) {
	for _, d := range ds {
		if d.Tag != si.DescriptorTagCa {
			continue
		}
		if ca, err := si.DecodeCaDescriptor(d); err == nil {
			s.addCaId(ca.CaSystemId)
		}
	}
}

// ApplyNit 只有(transport_stream_id, network_id)与当前transponder匹配的表项
// 才会被应用。NIT-actual对network_id有权威性，先行覆盖
func ApplyNit(t *Transponder, nit *si.Nit) {
	if nit.IsActual() {
		t.NetworkId = nit.NetworkId()
		t.Source |= SourceNitActual
		if d, ok := si.FindDescriptor(nit.NetworkDescriptors, si.DescriptorTagNetworkName); ok {
			t.NetworkName = si.DecodeNetworkNameDescriptor(d)
		}
	}
	if nit.NetworkId() != t.NetworkId {
		return
	}
	for _, te := range nit.Transports {
		if te.TransportStreamId != t.TransportStreamId {
			continue
		}
		if !nit.IsActual() {
			t.Source |= SourceNitOther
		}
		t.OriginalNetworkId = te.OriginalNetworkId
		applyDeliveryDescriptors(t, te.Descriptors)
	}
}

func applyDeliveryDescriptors(t *Transponder, ds []si.Descriptor) {
	for _, d := range ds {
		switch d.Tag {
		case si.DescriptorTagTerrestrial:
			td, err := si.DecodeTerrestrialDeliveryDescriptor(d)
			if err != nil {
				continue
			}
			t.Bandwidth = td.Bandwidth
			t.Modulation = td.Constellation
			t.Hierarchy = td.Hierarchy
			t.CodeRateHp = td.CodeRateHp
			t.CodeRateLp = td.CodeRateLp
			t.Guard = td.Guard
			t.Transmission = td.Transmission
			t.AddCell(td.CentreFrequency)
		case si.DescriptorTagCable:
			cd, err := si.DecodeCableDeliveryDescriptor(d)
			if err != nil {
				continue
			}
			t.Symbolrate = cd.SymbolRate
			t.Modulation = cd.Modulation
			t.CodeRateHp = cd.InnerFec
			t.AddCell(cd.Frequency)
		case si.DescriptorTagSatellite:
			// 卫星路径不在扫描范围内，仅识别
			if sd, err := si.DecodeSatelliteDeliveryDescriptor(d); err == nil {
				Log.Debugf("satellite delivery ignored. freq=%dkHz", sd.Frequency)
			}
		case si.DescriptorTagFrequencyList:
			fl, err := si.DecodeFrequencyListDescriptor(d)
			if err != nil || fl.CodingType == si.FrequencyCodingSatellite {
				continue
			}
			for _, f := range fl.Frequencies {
				t.AddCell(f)
			}
		case si.DescriptorTagExtension:
			applyExtensionDescriptor(t, d)
		case si.DescriptorTagLogicalChannel:
			for _, lc := range si.DecodeLogicalChannelDescriptor(d) {
				t.SetLcn(lc.ServiceId, LcnEntry{ChannelNumber: lc.ChannelNumber, Visible: lc.Visible})
			}
		}
	}
}

func applyExtensionDescriptor(t *Transponder, d si.Descriptor) {
	switch d.ExtensionTag() {
	case si.ExtensionTagT2Delivery:
		td, err := si.DecodeT2DeliveryDescriptor(d)
		if err != nil {
			return
		}
		t.PlpId = td.PlpId
		if td.HasExtension {
			t.Bandwidth = td.Bandwidth
			t.Guard = td.Guard
			t.Transmission = td.Transmission
			for _, cell := range td.Cells {
				for _, f := range cell.Frequencies {
					t.AddCell(f)
				}
			}
		}
	case si.ExtensionTagC2Delivery, si.ExtensionTagShDelivery:
		Log.Debugf("delivery extension not handled. extensionTag=0x%02X", d.ExtensionTag())
	case si.ExtensionTagNetworkChange:
		Log.Debugf("network change notify ignored")
	}
}

// ApplySdt 服务可能先于PAT由SDT创建
func ApplySdt(t *Transponder, sdt *si.Sdt) {
	if sdt.IsActual() {
		t.OriginalNetworkId = sdt.OriginalNetworkId
	}
	for _, se := range sdt.Services {
		s := AllocService(t, se.ServiceId)
		s.SeenSdt = true
		s.RunningStatus = se.RunningStatus
		s.Scrambled = se.FreeCaMode == 1
		if d, ok := si.FindDescriptor(se.Descriptors, si.DescriptorTagService); ok {
			if svcd, err := si.DecodeServiceDescriptor(d); err == nil {
				s.Name = svcd.ServiceName
				s.ProviderName = svcd.ProviderName
			}
		}
		if d, ok := si.FindDescriptor(se.Descriptors, si.DescriptorTagCaIdentifier); ok {
			for _, id := range si.DecodeCaIdentifierDescriptor(d) {
				s.addCaId(id)
			}
		}
	}
}

// ApplyVct ATSC虚拟频道表
func ApplyVct(t *Transponder, vct *si.Vct) {
	for _, ce := range vct.Channels {
		if ce.ProgramNumber == 0 || ce.ProgramNumber == 0xFFFF {
			// inactive或analog占位
			continue
		}
		if ce.ServiceType == si.AtscServiceAnalog {
			continue
		}
		s := AllocService(t, ce.ProgramNumber)
		if s.Name == "" {
			s.Name = ce.ShortName
		}
		s.AtscMajor = ce.MajorNumber
		s.AtscMinor = ce.MinorNumber
		s.Scrambled = s.Scrambled || ce.AccessControlled
		if ce.Hidden {
			t.SetLcn(ce.ProgramNumber, LcnEntry{ChannelNumber: ce.MajorNumber, Visible: false})
		}
	}
}
