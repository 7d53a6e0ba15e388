// Copyright 2024, Chef.  All rights reserved.
// https://github.com/q191201771/dvbscan
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package dvb

// DVB API v5 property命令字，见 <linux/dvb/frontend.h>
const (
	DtvUndefined      = 0
	DtvTune           = 1
	DtvClear          = 2
	DtvFrequency      = 3
	DtvModulation     = 4
	DtvBandwidthHz    = 5
	DtvInversion      = 6
	DtvSymbolRate     = 8
	DtvInnerFec       = 9
	DtvApiVersion     = 35
	DtvCodeRateHp     = 36
	DtvCodeRateLp     = 37
	DtvGuardInterval  = 38
	DtvTransmission   = 39
	DtvHierarchy      = 40
	DtvStreamId       = 42
	DtvDeliverySystem = 17
	DtvEnumDelsys     = 44

	DtvStatSignalStrength = 62
	DtvStatCnr            = 63
	DtvStatPreErrorBits   = 64
	DtvStatPreTotalBits   = 65
	DtvStatPostErrorBits  = 66
	DtvStatPostTotalBits  = 67
	DtvStatErrorBlocks    = 68
	DtvStatTotalBlocks    = 69
)

// fe_status位
const (
	FeHasSignal  = 0x01
	FeHasCarrier = 0x02
	FeHasViterbi = 0x04
	FeHasSync    = 0x08
	FeHasLock    = 0x10
	FeTimedout   = 0x20
	FeReinit     = 0x40
)

// fe_caps位
const (
	FeCanInversionAuto      = 0x1
	FeCanFecAuto            = 0x200
	FeCanQpsk               = 0x400
	FeCanQam16              = 0x800
	FeCanQam32              = 0x1000
	FeCanQam64              = 0x2000
	FeCanQam128             = 0x4000
	FeCanQam256             = 0x8000
	FeCanQamAuto            = 0x10000
	FeCanTransmissionAuto   = 0x20000
	FeCanBandwidthAuto      = 0x40000
	FeCanGuardIntervalAuto  = 0x80000
	FeCanHierarchyAuto      = 0x100000
	FeCan8Vsb               = 0x200000
	FeCan16Vsb              = 0x400000
	FeHasExtendedCaps       = 0x800000
	FeCanMultistream        = 0x4000000
	FeCanTurboFec           = 0x8000000
	FeCan2gModulation       = 0x10000000
)

// fe_scale，统计量的单位标签
const (
	ScaleNotAvailable = 0
	ScaleDecibel      = 1 // 0.001 dB(m)
	ScaleRelative     = 2 // 0..65535
	ScaleCounter      = 3
)
