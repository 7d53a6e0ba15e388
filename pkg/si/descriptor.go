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
	"github.com/q191201771/dvbscan/pkg/dvb"
	"github.com/q191201771/naza/pkg/nazabits"
)

// descriptor tag，见<ETSI EN 300 468> <Table 12>及<A/65>
const (
	DescriptorTagCa             = 0x09
	DescriptorTagIso639Language = 0x0A
	DescriptorTagNetworkName    = 0x40
	DescriptorTagSatellite      = 0x43
	DescriptorTagCable          = 0x44
	DescriptorTagService        = 0x48
	DescriptorTagCaIdentifier   = 0x53
	DescriptorTagTeletext       = 0x56
	DescriptorTagSubtitling     = 0x59
	DescriptorTagTerrestrial    = 0x5A
	DescriptorTagFrequencyList  = 0x62
	DescriptorTagAc3            = 0x6A
	DescriptorTagEnhancedAc3    = 0x7A
	DescriptorTagS2Satellite    = 0x79
	DescriptorTagExtension      = 0x7F
	DescriptorTagLogicalChannel = 0x83
)

// extension descriptor的子tag
const (
	ExtensionTagT2Delivery    = 0x04
	ExtensionTagShDelivery    = 0x05
	ExtensionTagC2Delivery    = 0x0D
	ExtensionTagNetworkChange = 0x07
)

type Descriptor struct {
	Tag  uint8
	Data []byte
}

// ExtensionTag 对0x7F返回子tag，其余返回-1
func (d Descriptor) ExtensionTag() int {
	if d.Tag != DescriptorTagExtension || len(d.Data) < 1 {
		return -1
	}
	return int(d.Data[0])
}

// ParseDescriptors 解析descriptor loop。
// 单个descriptor声明长度超出剩余空间时，丢弃剩余部分并返回已解析出的
func ParseDescriptors(b []byte) []Descriptor {
	var ds []Descriptor
	for len(b) >= 2 {
		tag := b[0]
		length := int(b[1])
		if 2+length > len(b) {
			Log.Warnf("descriptor length beyond loop. tag=0x%02X, length=%d, remain=%d", tag, length, len(b)-2)
			break
		}
		ds = append(ds, Descriptor{Tag: tag, Data: b[2 : 2+length]})
		b = b[2+length:]
	}
	return ds
}

// FindDescriptor 返回loop中第一个指定tag的descriptor
func FindDescriptor(ds []Descriptor, tag uint8) (Descriptor, bool) {
	for _, d := range ds {
		if d.Tag == tag {
			return d, true
		}
	}
	return Descriptor{}, false
}

// ----- 0x48 service ---------------------------------------------------------------------------------------------------

type ServiceDescriptor struct {
	Type         uint8
	ProviderName string
	ServiceName  string
}

func DecodeServiceDescriptor(d Descriptor) (sd ServiceDescriptor, err error) {
	b := d.Data
	if len(b) < 2 {
		return sd, base.ErrShortBuffer
	}
	sd.Type = b[0]
	pl := int(b[1])
	if 2+pl+1 > len(b) {
		return sd, base.ErrShortBuffer
	}
	sd.ProviderName = DecodeText(b[2 : 2+pl])
	nl := int(b[2+pl])
	if 3+pl+nl > len(b) {
		return sd, base.ErrShortBuffer
	}
	sd.ServiceName = DecodeText(b[3+pl : 3+pl+nl])
	return sd, nil
}

// ----- 0x40 network_name ----------------------------------------------------------------------------------------------

func DecodeNetworkNameDescriptor(d Descriptor) string {
	return DecodeText(d.Data)
}

// ----- 0x09 CA --------------------------------------------------------------------------------------------------------

type CaDescriptor struct {
	CaSystemId uint16
	CaPid      uint16
}

func DecodeCaDescriptor(d Descriptor) (ca CaDescriptor, err error) {
	if len(d.Data) < 4 {
		return ca, base.ErrShortBuffer
	}
	ca.CaSystemId = uint16(d.Data[0])<<8 | uint16(d.Data[1])
	ca.CaPid = uint16(d.Data[2]&0x1F)<<8 | uint16(d.Data[3])
	return ca, nil
}

// ----- 0x53 CA_identifier ---------------------------------------------------------------------------------------------

func DecodeCaIdentifierDescriptor(d Descriptor) (ids []uint16) {
	for i := 0; i+1 < len(d.Data); i += 2 {
		ids = append(ids, uint16(d.Data[i])<<8|uint16(d.Data[i+1]))
	}
	return
}

// ----- 0x0A ISO_639_language ------------------------------------------------------------------------------------------

type Iso639Language struct {
	Language  string
	AudioType uint8
}

func DecodeIso639LanguageDescriptor(d Descriptor) (langs []Iso639Language) {
	b := d.Data
	for len(b) >= 4 {
		langs = append(langs, Iso639Language{
			Language:  string(b[:3]),
			AudioType: b[3],
		})
		b = b[4:]
	}
	return
}

// ----- 0x59 subtitling ------------------------------------------------------------------------------------------------

type SubtitlingItem struct {
	Language          string
	Type              uint8
	CompositionPageId uint16
	AncillaryPageId   uint16
}

func DecodeSubtitlingDescriptor(d Descriptor) (items []SubtitlingItem) {
	b := d.Data
	for len(b) >= 8 {
		items = append(items, SubtitlingItem{
			Language:          string(b[:3]),
			Type:              b[3],
			CompositionPageId: uint16(b[4])<<8 | uint16(b[5]),
			AncillaryPageId:   uint16(b[6])<<8 | uint16(b[7]),
		})
		b = b[8:]
	}
	return
}

// ----- 0x5A terrestrial_delivery_system -------------------------------------------------------------------------------

// ---------------------------------------------------------------------------------------------------
// <ETSI EN 300 468> <6.2.13.4>
// centre_frequency         [32b] ** 单位10Hz
// bandwidth                [3b]  *
// priority                 [1b]
// Time_Slicing_indicator   [1b]
// MPE-FEC_indicator        [1b]
// reserved                 [2b]
// constellation            [2b]  *
// hierarchy_information    [3b]  *
// code_rate-HP_stream      [3b]  *
// code_rate-LP_stream      [3b]  *
// guard_interval           [2b]  *
// transmission_mode        [2b]  *
// other_frequency_flag     [1b]  *
// reserved                 [32b]
// ---------------------------------------------------------------------------------------------------
type TerrestrialDeliveryDescriptor struct {
	CentreFrequency    uint32 // Hz
	Bandwidth          uint32 // Hz
	Constellation      dvb.Modulation
	Hierarchy          dvb.Hierarchy
	CodeRateHp         dvb.CodeRate
	CodeRateLp         dvb.CodeRate
	Guard              dvb.GuardInterval
	Transmission       dvb.TransmissionMode
	OtherFrequencyFlag bool
}

var terrBandwidths = []uint32{8000000, 7000000, 6000000, 5000000}

var terrConstellations = []dvb.Modulation{dvb.Qpsk, dvb.Qam16, dvb.Qam64}

var terrCodeRates = []dvb.CodeRate{dvb.Fec12, dvb.Fec23, dvb.Fec34, dvb.Fec56, dvb.Fec78}

var terrGuards = []dvb.GuardInterval{dvb.Guard32, dvb.Guard16, dvb.Guard8, dvb.Guard4}

var terrTransmissions = []dvb.TransmissionMode{dvb.Transmission2k, dvb.Transmission8k, dvb.Transmission4k}

func DecodeTerrestrialDeliveryDescriptor(d Descriptor) (td TerrestrialDeliveryDescriptor, err error) {
	if len(d.Data) < 11 {
		return td, base.ErrShortBuffer
	}
	br := nazabits.NewBitReader(d.Data)
	freq, _ := br.ReadBits32(32)
	td.CentreFrequency = freq * 10
	bw, _ := br.ReadBits8(3)
	td.Bandwidth = lookupBandwidth(terrBandwidths, int(bw))
	_, _ = br.ReadBits8(5)
	con, _ := br.ReadBits8(2)
	td.Constellation = lookupModulation(terrConstellations, int(con))
	hi, _ := br.ReadBits8(3)
	if hi > 3 {
		hi -= 4 // 带in-depth interleaver的编码，层级含义相同
	}
	td.Hierarchy = dvb.Hierarchy(hi)
	hp, _ := br.ReadBits8(3)
	td.CodeRateHp = lookupCodeRate(terrCodeRates, int(hp))
	lp, _ := br.ReadBits8(3)
	td.CodeRateLp = lookupCodeRate(terrCodeRates, int(lp))
	gi, _ := br.ReadBits8(2)
	td.Guard = terrGuards[gi]
	tm, _ := br.ReadBits8(2)
	td.Transmission = lookupTransmission(terrTransmissions, int(tm))
	of, _ := br.ReadBits8(1)
	td.OtherFrequencyFlag = of != 0
	return td, nil
}

func lookupBandwidth(table []uint32, i int) uint32 {
	if i < 0 || i >= len(table) {
		return 8000000
	}
	return table[i]
}

func lookupModulation(table []dvb.Modulation, i int) dvb.Modulation {
	if i < 0 || i >= len(table) {
		return dvb.QamAuto
	}
	return table[i]
}

func lookupCodeRate(table []dvb.CodeRate, i int) dvb.CodeRate {
	if i < 0 || i >= len(table) {
		return dvb.FecAuto
	}
	return table[i]
}

func lookupGuard(table []dvb.GuardInterval, i int) dvb.GuardInterval {
	if i < 0 || i >= len(table) {
		return dvb.GuardAuto
	}
	return table[i]
}

func lookupTransmission(table []dvb.TransmissionMode, i int) dvb.TransmissionMode {
	if i < 0 || i >= len(table) {
		return dvb.TransmissionAuto
	}
	return table[i]
}

// ----- 0x7F/0x04 T2_delivery_system -----------------------------------------------------------------------------------

type T2Cell struct {
	CellId      uint16
	Frequencies []uint32 // Hz
}

type T2DeliveryDescriptor struct {
	PlpId              uint8
	T2SystemId         uint16
	HasExtension       bool
	SisoMiso           uint8
	Bandwidth          uint32 // Hz
	Guard              dvb.GuardInterval
	Transmission       dvb.TransmissionMode
	OtherFrequencyFlag bool
	TfsFlag            bool
	Cells              []T2Cell
}

var t2Bandwidths = []uint32{8000000, 7000000, 6000000, 5000000, 10000000, 1712000}

var t2Guards = []dvb.GuardInterval{
	dvb.Guard32, dvb.Guard16, dvb.Guard8, dvb.Guard4,
	dvb.Guard128, dvb.Guard19128, dvb.Guard19256,
}

var t2Transmissions = []dvb.TransmissionMode{
	dvb.Transmission2k, dvb.Transmission8k, dvb.Transmission4k,
	dvb.Transmission1k, dvb.Transmission16k, dvb.Transmission32k,
}

func DecodeT2DeliveryDescriptor(d Descriptor) (td T2DeliveryDescriptor, err error) {
	if d.ExtensionTag() != ExtensionTagT2Delivery {
		return td, base.ErrSi
	}
	b := d.Data[1:]
	if len(b) < 3 {
		return td, base.ErrShortBuffer
	}
	td.PlpId = b[0]
	td.T2SystemId = uint16(b[1])<<8 | uint16(b[2])
	if len(b) == 3 {
		return td, nil
	}
	if len(b) < 5 {
		return td, base.ErrShortBuffer
	}
	td.HasExtension = true
	br := nazabits.NewBitReader(b[3:])
	td.SisoMiso, _ = br.ReadBits8(2)
	bw, _ := br.ReadBits8(4)
	td.Bandwidth = lookupBandwidth(t2Bandwidths, int(bw))
	_, _ = br.ReadBits8(2)
	gi, _ := br.ReadBits8(3)
	td.Guard = lookupGuard(t2Guards, int(gi))
	tm, _ := br.ReadBits8(3)
	td.Transmission = lookupTransmission(t2Transmissions, int(tm))
	of, _ := br.ReadBits8(1)
	td.OtherFrequencyFlag = of != 0
	tfs, _ := br.ReadBits8(1)
	td.TfsFlag = tfs != 0

	// cell loop
	rest := b[5:]
	for len(rest) >= 2 {
		var cell T2Cell
		cell.CellId = uint16(rest[0])<<8 | uint16(rest[1])
		rest = rest[2:]
		if td.TfsFlag {
			if len(rest) < 1 {
				break
			}
			n := int(rest[0])
			rest = rest[1:]
			if n > len(rest) {
				break
			}
			for i := 0; i+3 < n; i += 4 {
				cell.Frequencies = append(cell.Frequencies, beUint32(rest[i:])*10)
			}
			rest = rest[n:]
		} else {
			if len(rest) < 4 {
				break
			}
			cell.Frequencies = append(cell.Frequencies, beUint32(rest)*10)
			rest = rest[4:]
		}
		// subcell loop
		if len(rest) < 1 {
			td.Cells = append(td.Cells, cell)
			break
		}
		sn := int(rest[0])
		rest = rest[1:]
		if sn > len(rest) {
			td.Cells = append(td.Cells, cell)
			break
		}
		for i := 0; i+4 < sn; i += 5 {
			cell.Frequencies = append(cell.Frequencies, beUint32(rest[i+1:])*10)
		}
		rest = rest[sn:]
		td.Cells = append(td.Cells, cell)
	}
	return td, nil
}

// ----- 0x44 cable_delivery_system -------------------------------------------------------------------------------------

type CableDeliveryDescriptor struct {
	Frequency  uint32 // Hz
	Modulation dvb.Modulation
	SymbolRate uint32 // symbol/s
	InnerFec   dvb.CodeRate
}

var cableModulations = []dvb.Modulation{dvb.QamAuto, dvb.Qam16, dvb.Qam32, dvb.Qam64, dvb.Qam128, dvb.Qam256}

var cableCodeRates = []dvb.CodeRate{
	dvb.FecAuto, dvb.Fec12, dvb.Fec23, dvb.Fec34, dvb.Fec56,
	dvb.Fec78, dvb.Fec89, dvb.Fec35, dvb.Fec45, dvb.Fec910, dvb.FecNone,
}

func DecodeCableDeliveryDescriptor(d Descriptor) (cd CableDeliveryDescriptor, err error) {
	if len(d.Data) < 11 {
		return cd, base.ErrShortBuffer
	}
	b := d.Data
	// frequency为8位BCD，单位100Hz
	cd.Frequency = bcdToUint32(b[0:4], 8) * 100
	cd.Modulation = lookupModulation(cableModulations, int(b[6]))
	// symbol_rate为7位BCD，单位100symbol/s
	cd.SymbolRate = bcdToUint32(b[7:11], 7) * 100
	cd.InnerFec = lookupCodeRate(cableCodeRates, int(b[10]&0x0F))
	return cd, nil
}

// ----- 0x43 satellite_delivery_system ---------------------------------------------------------------------------------

type SatelliteDeliveryDescriptor struct {
	Frequency        uint32 // kHz
	OrbitalPosition  uint16 // 0.1度
	WestEastFlag     uint8
	Polarization     dvb.Polarization
	ModulationSystem uint8 // 0=DVB-S 1=DVB-S2
	SymbolRate       uint32 // symbol/s
	InnerFec         dvb.CodeRate
}

func DecodeSatelliteDeliveryDescriptor(d Descriptor) (sd SatelliteDeliveryDescriptor, err error) {
	if len(d.Data) < 11 {
		return sd, base.ErrShortBuffer
	}
	b := d.Data
	// frequency为8位BCD，单位10kHz
	sd.Frequency = bcdToUint32(b[0:4], 8) * 10
	sd.OrbitalPosition = uint16(bcdToUint32(b[4:6], 4))
	sd.WestEastFlag = b[6] >> 7
	sd.Polarization = dvb.Polarization((b[6] >> 5) & 0x3)
	sd.ModulationSystem = (b[6] >> 2) & 0x1
	sd.SymbolRate = bcdToUint32(b[7:11], 7) * 100
	sd.InnerFec = lookupCodeRate(cableCodeRates, int(b[10]&0x0F))
	return sd, nil
}

// ----- 0x62 frequency_list --------------------------------------------------------------------------------------------

const (
	FrequencyCodingSatellite   = 1
	FrequencyCodingCable       = 2
	FrequencyCodingTerrestrial = 3
)

type FrequencyListDescriptor struct {
	CodingType  uint8
	Frequencies []uint32 // Hz(地面/有线)或kHz(卫星)
}

func DecodeFrequencyListDescriptor(d Descriptor) (fl FrequencyListDescriptor, err error) {
	if len(d.Data) < 1 {
		return fl, base.ErrShortBuffer
	}
	fl.CodingType = d.Data[0] & 0x3
	b := d.Data[1:]
	for len(b) >= 4 {
		switch fl.CodingType {
		case FrequencyCodingTerrestrial:
			fl.Frequencies = append(fl.Frequencies, beUint32(b)*10)
		case FrequencyCodingCable:
			fl.Frequencies = append(fl.Frequencies, bcdToUint32(b, 8)*100)
		case FrequencyCodingSatellite:
			fl.Frequencies = append(fl.Frequencies, bcdToUint32(b, 8)*10)
		default:
			return fl, nil
		}
		b = b[4:]
	}
	return fl, nil
}

// ----- 0x83 logical_channel -------------------------------------------------------------------------------------------

type LogicalChannel struct {
	ServiceId     uint16
	Visible       bool
	ChannelNumber uint16
}

func DecodeLogicalChannelDescriptor(d Descriptor) (lcs []LogicalChannel) {
	b := d.Data
	for len(b) >= 4 {
		lcs = append(lcs, LogicalChannel{
			ServiceId:     uint16(b[0])<<8 | uint16(b[1]),
			Visible:       b[2]&0x80 != 0,
			ChannelNumber: uint16(b[2]&0x03)<<8 | uint16(b[3]),
		})
		b = b[4:]
	}
	return
}

// ----- 编码，用于构造测试数据与仿真流 -----------------------------------------------------------------------------------

func BuildServiceDescriptor(sd ServiceDescriptor) []byte {
	body := make([]byte, 0, 2+len(sd.ProviderName)+1+len(sd.ServiceName))
	body = append(body, sd.Type, uint8(len(sd.ProviderName)))
	body = append(body, sd.ProviderName...)
	body = append(body, uint8(len(sd.ServiceName)))
	body = append(body, sd.ServiceName...)
	return wrapDescriptor(DescriptorTagService, body)
}

func BuildTerrestrialDeliveryDescriptor(td TerrestrialDeliveryDescriptor) []byte {
	body := make([]byte, 11)
	bw := nazabits.NewBitWriter(body)
	bw.WriteBits16(16, uint16(td.CentreFrequency/10>>16))
	bw.WriteBits16(16, uint16(td.CentreFrequency/10))
	bw.WriteBits8(3, uint8(indexOfBandwidth(terrBandwidths, td.Bandwidth)))
	bw.WriteBits8(5, 0x03) // priority等标志置0，reserved置1
	bw.WriteBits8(2, uint8(indexOfModulation(terrConstellations, td.Constellation)))
	bw.WriteBits8(3, uint8(td.Hierarchy))
	bw.WriteBits8(3, uint8(indexOfCodeRate(terrCodeRates, td.CodeRateHp)))
	bw.WriteBits8(3, uint8(indexOfCodeRate(terrCodeRates, td.CodeRateLp)))
	bw.WriteBits8(2, uint8(indexOfGuard(terrGuards, td.Guard)))
	bw.WriteBits8(2, uint8(indexOfTransmission(terrTransmissions, td.Transmission)))
	if td.OtherFrequencyFlag {
		bw.WriteBits8(1, 1)
	} else {
		bw.WriteBits8(1, 0)
	}
	body[7] = 0xFF
	body[8] = 0xFF
	body[9] = 0xFF
	body[10] = 0xFF
	return wrapDescriptor(DescriptorTagTerrestrial, body)
}

func BuildCableDeliveryDescriptor(cd CableDeliveryDescriptor) []byte {
	body := make([]byte, 11)
	uint32ToBcd(body[0:4], cd.Frequency/100, 8)
	body[4] = 0xFF
	body[5] = 0xF0
	body[6] = uint8(indexOfModulation(cableModulations, cd.Modulation))
	uint32ToBcd(body[7:11], cd.SymbolRate/100, 7)
	body[10] = body[10]&0xF0 | uint8(indexOfCodeRate(cableCodeRates, cd.InnerFec))
	return wrapDescriptor(DescriptorTagCable, body)
}

func BuildT2DeliveryDescriptor(td T2DeliveryDescriptor) []byte {
	body := []byte{ExtensionTagT2Delivery, td.PlpId, uint8(td.T2SystemId >> 8), uint8(td.T2SystemId)}
	return wrapDescriptor(DescriptorTagExtension, body)
}

func wrapDescriptor(tag uint8, body []byte) []byte {
	out := make([]byte, 0, 2+len(body))
	out = append(out, tag, uint8(len(body)))
	return append(out, body...)
}

func indexOfBandwidth(table []uint32, v uint32) int {
	for i, t := range table {
		if t == v {
			return i
		}
	}
	return 0
}

func indexOfModulation(table []dvb.Modulation, v dvb.Modulation) int {
	for i, t := range table {
		if t == v {
			return i
		}
	}
	return 0
}

func indexOfCodeRate(table []dvb.CodeRate, v dvb.CodeRate) int {
	for i, t := range table {
		if t == v {
			return i
		}
	}
	return 0
}

func indexOfGuard(table []dvb.GuardInterval, v dvb.GuardInterval) int {
	for i, t := range table {
		if t == v {
			return i
		}
	}
	return 0
}

func indexOfTransmission(table []dvb.TransmissionMode, v dvb.TransmissionMode) int {
	for i, t := range table {
		if t == v {
			return i
		}
	}
	return 0
}

func beUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// bcdToUint32 取头digits个BCD位
func bcdToUint32(b []byte, digits int) uint32 {
	var v uint32
	for i := 0; i < digits; i++ {
		nibble := b[i/2]
		if i%2 == 0 {
			nibble >>= 4
		}
		v = v*10 + uint32(nibble&0x0F)
	}
	return v
}

func uint32ToBcd(dst []byte, v uint32, digits int) {
	for i := digits - 1; i >= 0; i-- {
		d := uint8(v % 10)
		v /= 10
		if i%2 == 0 {
			dst[i/2] = dst[i/2]&0x0F | d<<4
		} else {
			dst[i/2] = dst[i/2]&0xF0 | d
		}
	}
}
