// Copyright 2024, Chef.  All rights reserved.
// https://github.com/q191201771/dvbscan
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package output

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/q191201771/dvbscan/pkg/base"
	"github.com/q191201771/dvbscan/pkg/dvb"
	"github.com/q191201771/dvbscan/pkg/sidb"
)

// initial tuning data，一行一个transponder，空格分隔:
//
//   T  freq bw fec_hp fec_lp mod transmission guard hierarchy
//   T2 freq bw fec_hp fec_lp mod transmission guard hierarchy plp_id
//   C  freq symbolrate fec mod
//   A  freq mod
//
// '#'开头是注释。带宽写成"8MHz"，保护间隔写成"1/8"

func DumpTuningData(w io.Writer, db *sidb.Db) error {
	for _, t := range db.Output {
		var line string
		switch t.ScanType() {
		case sidb.ScanTerrestrial:
			line = fmt.Sprintf("%s %d %s %s %s %s %s %s %s",
				tdSystem(t.Delsys), t.Frequency,
				tdBandwidth(t.Bandwidth),
				t.CodeRateHp.String(), t.CodeRateLp.String(),
				tdModulation(t.Modulation),
				t.Transmission.String(), t.Guard.String(),
				tdHierarchy(t.Hierarchy))
			if t.Delsys == dvb.SysDvbt2 {
				line = fmt.Sprintf("%s %d", line, t.PlpId)
			}
		case sidb.ScanCable:
			line = fmt.Sprintf("C %d %d %s %s",
				t.Frequency, t.Symbolrate,
				t.CodeRateHp.String(), tdModulation(t.Modulation))
		case sidb.ScanAtsc:
			line = fmt.Sprintf("A %d %s", t.Frequency, tdModulation(t.Modulation))
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// ParseTuningData 忽略注释和空行，坏行直接报错不猜
func ParseTuningData(r io.Reader) ([]dvb.Tuning, error) {
	var out []dvb.Tuning
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tuning, err := parseTuningLine(line)
		if err != nil {
			Log.Errorf("parse tuning data failed. line=%d, text=%q, err=%+v", lineNo, line, err)
			return nil, err
		}
		out = append(out, tuning)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseTuningLine(line string) (dvb.Tuning, error) {
	fields := strings.Fields(line)
	t := dvb.Tuning{
		Inversion:    dvb.InversionAuto,
		CodeRateHp:   dvb.FecAuto,
		CodeRateLp:   dvb.FecAuto,
		Modulation:   dvb.QamAuto,
		Transmission: dvb.TransmissionAuto,
		Guard:        dvb.GuardAuto,
		Hierarchy:    dvb.HierarchyAuto,
	}
	if len(fields) < 2 {
		return t, base.ErrTuningData
	}
	freq, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return t, base.ErrTuningData
	}
	t.Frequency = uint32(freq)

	switch fields[0] {
	case "T", "T2":
		t.Delsys = dvb.SysDvbt
		if fields[0] == "T2" {
			t.Delsys = dvb.SysDvbt2
		}
		if len(fields) < 9 {
			return t, base.ErrTuningData
		}
		ok := parseTdBandwidth(fields[2], &t.Bandwidth) &&
			parseTdFec(fields[3], &t.CodeRateHp) &&
			parseTdFec(fields[4], &t.CodeRateLp) &&
			parseTdModulation(fields[5], &t.Modulation) &&
			parseTdTransmission(fields[6], &t.Transmission) &&
			parseTdGuard(fields[7], &t.Guard) &&
			parseTdHierarchy(fields[8], &t.Hierarchy)
		if !ok {
			return t, base.ErrTuningData
		}
		if fields[0] == "T2" && len(fields) >= 10 {
			plp, err := strconv.ParseUint(fields[9], 10, 8)
			if err != nil {
				return t, base.ErrTuningData
			}
			t.PlpId = uint8(plp)
		}
	case "C":
		t.Delsys = dvb.SysDvbcAnnexA
		if len(fields) < 5 {
			return t, base.ErrTuningData
		}
		sr, err := strconv.ParseUint(fields[2], 10, 32)
		if err != nil {
			return t, base.ErrTuningData
		}
		t.Symbolrate = uint32(sr)
		if !parseTdFec(fields[3], &t.CodeRateHp) || !parseTdModulation(fields[4], &t.Modulation) {
			return t, base.ErrTuningData
		}
	case "A":
		t.Delsys = dvb.SysAtsc
		t.Modulation = dvb.Vsb8
		if len(fields) >= 3 && !parseTdModulation(fields[2], &t.Modulation) {
			return t, base.ErrTuningData
		}
	default:
		return t, base.ErrTuningData
	}
	return t, nil
}

func tdSystem(d dvb.DeliverySystem) string {
	if d == dvb.SysDvbt2 {
		return "T2"
	}
	return "T"
}

func tdBandwidth(hz uint32) string {
	switch hz {
	case 1712000:
		return "1.712MHz"
	case 0:
		return "AUTO"
	}
	return fmt.Sprintf("%dMHz", hz/1000000)
}

func parseTdBandwidth(s string, out *uint32) bool {
	switch strings.ToUpper(s) {
	case "AUTO":
		*out = 0
		return true
	case "1.712MHZ":
		*out = 1712000
		return true
	}
	if !strings.HasSuffix(strings.ToUpper(s), "MHZ") {
		return false
	}
	mhz, err := strconv.ParseUint(s[:len(s)-3], 10, 32)
	if err != nil {
		return false
	}
	*out = uint32(mhz) * 1000000
	return true
}

func parseTdFec(s string, out *dvb.CodeRate) bool {
	table := map[string]dvb.CodeRate{
		"NONE": dvb.FecNone, "1/2": dvb.Fec12, "2/3": dvb.Fec23, "3/4": dvb.Fec34,
		"4/5": dvb.Fec45, "5/6": dvb.Fec56, "6/7": dvb.Fec67, "7/8": dvb.Fec78,
		"8/9": dvb.Fec89, "3/5": dvb.Fec35, "9/10": dvb.Fec910, "2/5": dvb.Fec25,
		"AUTO": dvb.FecAuto,
	}
	v, ok := table[strings.ToUpper(s)]
	if ok {
		*out = v
	}
	return ok
}

func tdModulation(m dvb.Modulation) string {
	switch m {
	case dvb.Qpsk:
		return "QPSK"
	case dvb.Qam16:
		return "QAM16"
	case dvb.Qam32:
		return "QAM32"
	case dvb.Qam64:
		return "QAM64"
	case dvb.Qam128:
		return "QAM128"
	case dvb.Qam256:
		return "QAM256"
	case dvb.Vsb8:
		return "8VSB"
	case dvb.Vsb16:
		return "16VSB"
	}
	return "AUTO"
}

func parseTdModulation(s string, out *dvb.Modulation) bool {
	table := map[string]dvb.Modulation{
		"QPSK": dvb.Qpsk, "QAM16": dvb.Qam16, "QAM32": dvb.Qam32, "QAM64": dvb.Qam64,
		"QAM128": dvb.Qam128, "QAM256": dvb.Qam256, "8VSB": dvb.Vsb8, "16VSB": dvb.Vsb16,
		"AUTO": dvb.QamAuto,
	}
	v, ok := table[strings.ToUpper(s)]
	if ok {
		*out = v
	}
	return ok
}

func parseTdTransmission(s string, out *dvb.TransmissionMode) bool {
	table := map[string]dvb.TransmissionMode{
		"1K": dvb.Transmission1k, "2K": dvb.Transmission2k, "4K": dvb.Transmission4k,
		"8K": dvb.Transmission8k, "16K": dvb.Transmission16k, "32K": dvb.Transmission32k,
		"AUTO": dvb.TransmissionAuto,
	}
	v, ok := table[strings.ToUpper(s)]
	if ok {
		*out = v
	}
	return ok
}

func parseTdGuard(s string, out *dvb.GuardInterval) bool {
	table := map[string]dvb.GuardInterval{
		"1/32": dvb.Guard32, "1/16": dvb.Guard16, "1/8": dvb.Guard8, "1/4": dvb.Guard4,
		"1/128": dvb.Guard128, "19/128": dvb.Guard19128, "19/256": dvb.Guard19256,
		"AUTO": dvb.GuardAuto,
	}
	v, ok := table[strings.ToUpper(s)]
	if ok {
		*out = v
	}
	return ok
}

func tdHierarchy(h dvb.Hierarchy) string {
	switch h {
	case dvb.HierarchyNone:
		return "NONE"
	case dvb.Hierarchy1:
		return "1"
	case dvb.Hierarchy2:
		return "2"
	case dvb.Hierarchy4:
		return "4"
	}
	return "AUTO"
}

func parseTdHierarchy(s string, out *dvb.Hierarchy) bool {
	table := map[string]dvb.Hierarchy{
		"NONE": dvb.HierarchyNone, "0": dvb.HierarchyNone, "1": dvb.Hierarchy1,
		"2": dvb.Hierarchy2, "4": dvb.Hierarchy4, "AUTO": dvb.HierarchyAuto,
	}
	v, ok := table[strings.ToUpper(s)]
	if ok {
		*out = v
	}
	return ok
}
