// Copyright 2024, Chef.  All rights reserved.
// https://github.com/q191201771/dvbscan
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package sidb

// 各PID槽位的容量上限，超出部分截断并告警
const (
	AudioMax      = 32
	Ac3Max        = 32
	SubtitlingMax = 32
	CaMax         = 32
)

type ServiceType uint8

const (
	ServiceTv ServiceType = iota
	ServiceRadio
	ServiceOther
)

func (st ServiceType) String() string {
	switch st {
	case ServiceTv:
		return "tv"
	case ServiceRadio:
		return "radio"
	}
	return "other"
}

type AudioPid struct {
	Pid        uint16
	Lang       string // 最多4字符语言标记
	StreamType uint8
}

type SubtitlingPid struct {
	Pid  uint16
	Lang string
}

// Service 复用内的一个节目。归属的Transponder以Id回指，不持有指针
type Service struct {
	TransponderId int
	ServiceId     uint16

	PmtPid uint16
	PcrPid uint16

	VideoPid        uint16
	VideoStreamType uint8
	Audio           []AudioPid
	Ac3             []AudioPid
	TeletextPid     uint16
	Subtitling      []SubtitlingPid
	CaIds           []uint16

	Name         string
	ProviderName string

	RunningStatus uint8
	Scrambled     bool

	// ATSC虚拟频道号
	AtscMajor uint16
	AtscMinor uint16

	SeenPat bool
	SeenPmt bool
	SeenSdt bool
}

// Type 有视频即tv，只有音频即radio，其余other
func (s *Service) Type() ServiceType {
	if s.VideoPid != 0 {
		return ServiceTv
	}
	if len(s.Audio) > 0 || len(s.Ac3) > 0 {
		return ServiceRadio
	}
	return ServiceOther
}

func (s *Service) addAudio(a AudioPid) {
	if len(s.Audio) >= AudioMax {
		Log.Warnf("too many audio pids, truncate. serviceId=%d, pid=%d", s.ServiceId, a.Pid)
		return
	}
	s.Audio = append(s.Audio, a)
}

func (s *Service) addAc3(a AudioPid) {
	if len(s.Ac3) >= Ac3Max {
		Log.Warnf("too many ac3 pids, truncate. serviceId=%d, pid=%d", s.ServiceId, a.Pid)
		return
	}
	s.Ac3 = append(s.Ac3, a)
}

func (s *Service) addSubtitling(p SubtitlingPid) {
	if len(s.Subtitling) >= SubtitlingMax {
		Log.Warnf("too many subtitling pids, truncate. serviceId=%d, pid=%d", s.ServiceId, p.Pid)
		return
	}
	s.Subtitling = append(s.Subtitling, p)
}

func (s *Service) addCaId(id uint16) {
	for _, v := range s.CaIds {
		if v == id {
			return
		}
	}
	if len(s.CaIds) >= CaMax {
		Log.Warnf("too many ca ids, truncate. serviceId=%d, caId=0x%04X", s.ServiceId, id)
		return
	}
	s.CaIds = append(s.CaIds, id)
}
