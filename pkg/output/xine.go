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

	"github.com/q191201771/dvbscan/pkg/dvb"
	"github.com/q191201771/dvbscan/pkg/sidb"
)

// xine与mplayer读同一种channels.conf，字段是szap风格的枚举名

func dumpXine(w io.Writer, db *sidb.Db, opts Options) error {
	for _, t := range db.Output {
		for _, s := range t.Services {
			if !opts.Selection.Keep(s) {
				continue
			}
			if err := writeXineLine(w, t, s, opts); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeXineLine(w io.Writer, t *sidb.Transponder, s *sidb.Service, opts Options) error {
	name := strings.ReplaceAll(serviceName(s, opts), ";", " ")
	apid := uint16(0)
	if len(s.Audio) > 0 {
		apid = s.Audio[0].Pid
	} else if len(s.Ac3) > 0 {
		apid = s.Ac3[0].Pid
	}

	var line string
	switch t.ScanType() {
	case sidb.ScanTerrestrial:
		line = fmt.Sprintf("%s:%d:%s:%s:%s:%s:%s:%s:%s:%s:%d:%d:%d",
			name, t.Frequency,
			xineInversion(t.Inversion),
			xineBandwidth(t.Bandwidth),
			xineFec(t.CodeRateHp),
			xineFec(t.CodeRateLp),
			xineModulation(t.Modulation),
			xineTransmission(t.Transmission),
			xineGuard(t.Guard),
			xineHierarchy(t.Hierarchy),
			s.VideoPid, apid, s.ServiceId)
	case sidb.ScanCable:
		line = fmt.Sprintf("%s:%d:%s:%d:%s:%s:%d:%d:%d",
			name, t.Frequency,
			xineInversion(t.Inversion),
			t.Symbolrate,
			xineFec(t.CodeRateHp),
			xineModulation(t.Modulation),
			s.VideoPid, apid, s.ServiceId)
	case sidb.ScanAtsc:
		line = fmt.Sprintf("%s:%d:%s:%d:%d:%d",
			name, t.Frequency,
			xineModulation(t.Modulation),
			s.VideoPid, apid, s.ServiceId)
	}
	_, err := fmt.Fprintln(w, line)
	return err
}

func xineInversion(i dvb.Inversion) string {
	switch i {
	case dvb.InversionOff:
		return "INVERSION_OFF"
	case dvb.InversionOn:
		return "INVERSION_ON"
	}
	return "INVERSION_AUTO"
}

func xineBandwidth(hz uint32) string {
	switch hz {
	case 6000000:
		return "BANDWIDTH_6_MHZ"
	case 7000000:
		return "BANDWIDTH_7_MHZ"
	case 8000000:
		return "BANDWIDTH_8_MHZ"
	}
	return "BANDWIDTH_AUTO"
}

func xineFec(c dvb.CodeRate) string {
	switch c {
	case dvb.FecNone:
		return "FEC_NONE"
	case dvb.Fec12:
		return "FEC_1_2"
	case dvb.Fec23:
		return "FEC_2_3"
	case dvb.Fec34:
		return "FEC_3_4"
	case dvb.Fec45:
		return "FEC_4_5"
	case dvb.Fec56:
		return "FEC_5_6"
	case dvb.Fec67:
		return "FEC_6_7"
	case dvb.Fec78:
		return "FEC_7_8"
	case dvb.Fec89:
		return "FEC_8_9"
	case dvb.Fec35:
		return "FEC_3_5"
	case dvb.Fec910:
		return "FEC_9_10"
	}
	return "FEC_AUTO"
}

func xineModulation(m dvb.Modulation) string {
	switch m {
	case dvb.Qpsk:
		return "QPSK"
	case dvb.Qam16:
		return "QAM_16"
	case dvb.Qam32:
		return "QAM_32"
	case dvb.Qam64:
		return "QAM_64"
	case dvb.Qam128:
		return "QAM_128"
	case dvb.Qam256:
		return "QAM_256"
	case dvb.Vsb8:
		return "8VSB"
	case dvb.Vsb16:
		return "16VSB"
	}
	return "QAM_AUTO"
}

func xineTransmission(t dvb.TransmissionMode) string {
	switch t {
	case dvb.Transmission2k:
		return "TRANSMISSION_MODE_2K"
	case dvb.Transmission8k:
		return "TRANSMISSION_MODE_8K"
	case dvb.Transmission4k:
		return "TRANSMISSION_MODE_4K"
	}
	return "TRANSMISSION_MODE_AUTO"
}

func xineGuard(g dvb.GuardInterval) string {
	switch g {
	case dvb.Guard32:
		return "GUARD_INTERVAL_1_32"
	case dvb.Guard16:
		return "GUARD_INTERVAL_1_16"
	case dvb.Guard8:
		return "GUARD_INTERVAL_1_8"
	case dvb.Guard4:
		return "GUARD_INTERVAL_1_4"
	}
	return "GUARD_INTERVAL_AUTO"
}

func xineHierarchy(h dvb.Hierarchy) string {
	switch h {
	case dvb.HierarchyNone:
		return "HIERARCHY_NONE"
	case dvb.Hierarchy1:
		return "HIERARCHY_1"
	case dvb.Hierarchy2:
		return "HIERARCHY_2"
	case dvb.Hierarchy4:
		return "HIERARCHY_4"
	}
	return "HIERARCHY_AUTO"
}
