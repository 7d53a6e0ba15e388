// Copyright 2024, Chef.  All rights reserved.
// https://github.com/q191201771/dvbscan
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package dvb

// 枚举值与 <linux/dvb/frontend.h> 保持一致，可直接用于property ioctl

// DeliverySystem fe_delivery_system
type DeliverySystem uint32

const (
	SysUndefined DeliverySystem = iota
	SysDvbcAnnexA
	SysDvbcAnnexB
	SysDvbt
	SysDss
	SysDvbs
	SysDvbs2
	SysDvbh
	SysIsdbt
	SysIsdbs
	SysIsdbc
	SysAtsc
	SysAtscMh
	SysDtmb
	SysCmmb
	SysDab
	SysDvbt2
	SysTurbo
	SysDvbcAnnexC
)

func (d DeliverySystem) String() string {
	names := []string{
		"UNDEFINED", "DVB-C ann.A", "DVB-C ann.B", "DVB-T", "DSS", "DVB-S", "DVB-S2", "DVB-H",
		"ISDB-T", "ISDB-S", "ISDB-C", "ATSC", "ATSC/MH", "DTMB", "CMMB", "DAB", "DVB-T2",
		"TURBO-FEC", "DVB-C ann.C",
	}
	if int(d) < len(names) {
		return names[d]
	}
	return "???"
}

// Modulation fe_modulation
type Modulation uint32

const (
	Qpsk Modulation = iota
	Qam16
	Qam32
	Qam64
	Qam128
	Qam256
	QamAuto
	Vsb8
	Vsb16
	Psk8
	Apsk16
	Apsk32
	Dqpsk
	Qam4Nr
)

func (m Modulation) String() string {
	names := []string{
		"QPSK", "QAM16", "QAM32", "QAM64", "QAM128", "QAM256", "QAM_AUTO", "8VSB", "16VSB",
		"8PSK", "16APSK", "32APSK", "DQPSK", "QAM4_NR",
	}
	if int(m) < len(names) {
		return names[m]
	}
	return "???"
}

// CodeRate fe_code_rate
type CodeRate uint32

const (
	FecNone CodeRate = iota
	Fec12
	Fec23
	Fec34
	Fec45
	Fec56
	Fec67
	Fec78
	Fec89
	FecAuto
	Fec35
	Fec910
	Fec25
)

func (c CodeRate) String() string {
	names := []string{
		"NONE", "1/2", "2/3", "3/4", "4/5", "5/6", "6/7", "7/8", "8/9", "AUTO", "3/5", "9/10", "2/5",
	}
	if int(c) < len(names) {
		return names[c]
	}
	return "???"
}

// Inversion fe_spectral_inversion
type Inversion uint32

const (
	InversionOff Inversion = iota
	InversionOn
	InversionAuto
)

// TransmissionMode fe_transmit_mode
type TransmissionMode uint32

const (
	Transmission2k TransmissionMode = iota
	Transmission8k
	TransmissionAuto
	Transmission4k
	Transmission1k
	Transmission16k
	Transmission32k
)

func (t TransmissionMode) String() string {
	names := []string{"2k", "8k", "AUTO", "4k", "1k", "16k", "32k"}
	if int(t) < len(names) {
		return names[t]
	}
	return "???"
}

// GuardInterval fe_guard_interval
type GuardInterval uint32

const (
	Guard32 GuardInterval = iota // 1/32
	Guard16                      // 1/16
	Guard8                       // 1/8
	Guard4                       // 1/4
	GuardAuto
	Guard128    // 1/128
	Guard19128  // 19/128
	Guard19256  // 19/256
)

func (g GuardInterval) String() string {
	names := []string{"1/32", "1/16", "1/8", "1/4", "AUTO", "1/128", "19/128", "19/256"}
	if int(g) < len(names) {
		return names[g]
	}
	return "???"
}

// Hierarchy fe_hierarchy
type Hierarchy uint32

const (
	HierarchyNone Hierarchy = iota
	Hierarchy1
	Hierarchy2
	Hierarchy4
	HierarchyAuto
)

// Polarization 仅用于卫星；扫描核心不使用，但NIT卫星描述符会携带
type Polarization uint8

const (
	PolarizationHorizontal Polarization = iota
	PolarizationVertical
	PolarizationCircularLeft
	PolarizationCircularRight
)
