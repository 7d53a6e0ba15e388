// Copyright 2024, Chef.  All rights reserved.
// https://github.com/q191201771/dvbscan
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/q191201771/dvbscan/pkg/base"
	"github.com/q191201771/dvbscan/pkg/dvb"
	"github.com/q191201771/dvbscan/pkg/sidb"
)

// VDR channels.conf，见<vdr(5)>。
// 一行一个服务:
// Name;Provider:Freq:Params:Source:Srate:VPID:APIDs:TPID:CAIDs:SID:NID:TID:RID
// gstreamer变体在行尾追加PMT PID字段

func dumpVdr(w io.Writer, format Format, db *sidb.Db, opts Options) error {
	for _, t := range db.Output {
		for _, s := range t.Services {
			if !opts.Selection.Keep(s) {
				continue
			}
			if err := writeVdrLine(w, format, t, s, opts); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeVdrLine(w io.Writer, format Format, t *sidb.Transponder, s *sidb.Service, opts Options) error {
	name := serviceName(s, opts)
	if base.DumpProviderFlag && s.ProviderName != "" {
		name = name + ";" + sanitizeVdr(transcode(s.ProviderName, opts.Charset))
	}

	source := "T"
	srate := uint32(27500)
	switch t.ScanType() {
	case sidb.ScanCable:
		source = "C"
		srate = t.Symbolrate / 1000
	case sidb.ScanAtsc:
		source = "A"
		srate = 0
	}

	line := fmt.Sprintf("%s:%d:%s:%s:%d:%s:%s:%d:%s:%d:%d:%d:0",
		name,
		t.Frequency/1000,
		vdrParams(format, t),
		source,
		srate,
		vdrVideo(s),
		vdrAudio(s),
		s.TeletextPid,
		vdrCaids(s),
		s.ServiceId,
		t.OriginalNetworkId,
		t.TransportStreamId,
	)
	if format == FormatGstreamer {
		line = fmt.Sprintf("%s:%d", line, s.PmtPid)
	}
	_, err := fmt.Fprintln(w, line)
	return err
}

func serviceName(s *sidb.Service, opts Options) string {
	if s.Name == "" {
		return fmt.Sprintf("service_id %d", s.ServiceId)
	}
	return sanitizeVdr(transcode(s.Name, opts.Charset))
}

// sanitizeVdr 冒号是VDR的字段分隔符，名字里的换成空格
func sanitizeVdr(s string) string {
	return strings.ReplaceAll(s, ":", " ")
}

func vdrParams(format Format, t *sidb.Transponder) string {
	var b strings.Builder
	switch t.ScanType() {
	case sidb.ScanTerrestrial:
		fmt.Fprintf(&b, "B%d", vdrBandwidth(t.Bandwidth))
		fmt.Fprintf(&b, "C%d", vdrFec(t.CodeRateHp))
		fmt.Fprintf(&b, "D%d", vdrFec(t.CodeRateLp))
		fmt.Fprintf(&b, "G%d", vdrGuard(t.Guard))
		fmt.Fprintf(&b, "I%d", vdrInversion(t.Inversion))
		fmt.Fprintf(&b, "M%d", vdrModulation(t.Modulation))
		fmt.Fprintf(&b, "T%d", vdrTransmission(t.Transmission))
		fmt.Fprintf(&b, "Y%d", vdrHierarchy(t.Hierarchy))
		if format != FormatVdr20 {
			if t.Delsys == dvb.SysDvbt2 {
				fmt.Fprintf(&b, "S1P%d", t.PlpId)
			} else {
				b.WriteString("S0")
			}
		}
	case sidb.ScanCable:
		fmt.Fprintf(&b, "C%d", vdrFec(t.CodeRateHp))
		fmt.Fprintf(&b, "I%d", vdrInversion(t.Inversion))
		fmt.Fprintf(&b, "M%d", vdrModulation(t.Modulation))
	case sidb.ScanAtsc:
		fmt.Fprintf(&b, "I%d", vdrInversion(t.Inversion))
		fmt.Fprintf(&b, "M%d", vdrModulation(t.Modulation))
	}
	return b.String()
}

func vdrVideo(s *sidb.Service) string {
	if s.VideoPid == 0 {
		return "0"
	}
	vtype := 2
	switch s.VideoStreamType {
	case 0x1B:
		vtype = 27
	case 0x24:
		vtype = 36
	}
	if s.PcrPid != 0 && s.PcrPid != s.VideoPid {
		return fmt.Sprintf("%d+%d=%d", s.VideoPid, s.PcrPid, vtype)
	}
	return fmt.Sprintf("%d=%d", s.VideoPid, vtype)
}

// vdrAudio 普通音频逗号分隔，分号后是AC-3
func vdrAudio(s *sidb.Service) string {
	var parts []string
	for _, a := range s.Audio {
		if a.Lang != "" {
			parts = append(parts, fmt.Sprintf("%d=%s", a.Pid, a.Lang))
		} else {
			parts = append(parts, fmt.Sprintf("%d", a.Pid))
		}
	}
	out := strings.Join(parts, ",")
	if out == "" {
		out = "0"
	}
	if len(s.Ac3) > 0 {
		var dparts []string
		for _, a := range s.Ac3 {
			if a.Lang != "" {
				dparts = append(dparts, fmt.Sprintf("%d=%s", a.Pid, a.Lang))
			} else {
				dparts = append(dparts, fmt.Sprintf("%d", a.Pid))
			}
		}
		out = out + ";" + strings.Join(dparts, ",")
	}
	return out
}

func vdrCaids(s *sidb.Service) string {
	if len(s.CaIds) == 0 {
		return "0"
	}
	var parts []string
	for _, id := range s.CaIds {
		parts = append(parts, fmt.Sprintf("%X", id))
	}
	return strings.Join(parts, ",")
}

func vdrBandwidth(hz uint32) int {
	switch hz {
	case 5000000:
		return 5
	case 6000000:
		return 6
	case 7000000:
		return 7
	case 8000000:
		return 8
	case 10000000:
		return 10
	case 1712000:
		return 1712
	}
	return 8
}

func vdrFec(c dvb.CodeRate) int {
	switch c {
	case dvb.FecNone:
		return 0
	case dvb.Fec12:
		return 12
	case dvb.Fec23:
		return 23
	case dvb.Fec34:
		return 34
	case dvb.Fec45:
		return 45
	case dvb.Fec56:
		return 56
	case dvb.Fec67:
		return 67
	case dvb.Fec78:
		return 78
	case dvb.Fec89:
		return 89
	case dvb.Fec35:
		return 35
	case dvb.Fec910:
		return 910
	case dvb.Fec25:
		return 25
	}
	return 999
}

func vdrGuard(g dvb.GuardInterval) int {
	switch g {
	case dvb.Guard32:
		return 32
	case dvb.Guard16:
		return 16
	case dvb.Guard8:
		return 8
	case dvb.Guard4:
		return 4
	case dvb.Guard128:
		return 128
	case dvb.Guard19128:
		return 19128
	case dvb.Guard19256:
		return 19256
	}
	return 999
}

func vdrModulation(m dvb.Modulation) int {
	switch m {
	case dvb.Qpsk:
		return 2
	case dvb.Qam16:
		return 16
	case dvb.Qam32:
		return 32
	case dvb.Qam64:
		return 64
	case dvb.Qam128:
		return 128
	case dvb.Qam256:
		return 256
	case dvb.Vsb8:
		return 10
	case dvb.Vsb16:
		return 11
	}
	return 999
}

func vdrTransmission(t dvb.TransmissionMode) int {
	switch t {
	case dvb.Transmission1k:
		return 1
	case dvb.Transmission2k:
		return 2
	case dvb.Transmission4k:
		return 4
	case dvb.Transmission8k:
		return 8
	case dvb.Transmission16k:
		return 16
	case dvb.Transmission32k:
		return 32
	}
	return 999
}

func vdrHierarchy(h dvb.Hierarchy) int {
	switch h {
	case dvb.HierarchyNone:
		return 0
	case dvb.Hierarchy1:
		return 1
	case dvb.Hierarchy2:
		return 2
	case dvb.Hierarchy4:
		return 4
	}
	return 999
}

func vdrInversion(i dvb.Inversion) int {
	switch i {
	case dvb.InversionOff:
		return 0
	case dvb.InversionOn:
		return 1
	}
	return 999
}
