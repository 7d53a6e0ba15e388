// Copyright 2024, Chef.  All rights reserved.
// https://github.com/q191201771/dvbscan
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package output

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/q191201771/dvbscan/pkg/dvb"
	"github.com/q191201771/dvbscan/pkg/sidb"
)

type xmlServiceList struct {
	XMLName      xml.Name         `xml:"service_list"`
	Transponders []xmlTransponder `xml:"transponders>transponder"`
	Services     []xmlService     `xml:"services>service"`
}

type xmlTransponder struct {
	Onid      uint16    `xml:"ONID,attr"`
	Nid       uint16    `xml:"NID,attr"`
	Tsid      uint16    `xml:"TSID,attr"`
	Network   string    `xml:"network_name,attr,omitempty"`
	Params    xmlParams `xml:"params"`
}

type xmlParams struct {
	Delsys       string `xml:"delivery_system,attr"`
	Frequency    uint32 `xml:"center_frequency,attr"`
	Bandwidth    uint32 `xml:"bandwidth,attr,omitempty"`
	Symbolrate   uint32 `xml:"symbolrate,attr,omitempty"`
	Modulation   string `xml:"modulation,attr"`
	CodeRateHp   string `xml:"code_rate_hp,attr,omitempty"`
	CodeRateLp   string `xml:"code_rate_lp,attr,omitempty"`
	Transmission string `xml:"transmission_mode,attr,omitempty"`
	Guard        string `xml:"guard_interval,attr,omitempty"`
	Hierarchy    string `xml:"hierarchy,attr,omitempty"`
	PlpId        *uint8 `xml:"plp_id,attr,omitempty"`
}

type xmlService struct {
	Onid      uint16      `xml:"ONID,attr"`
	Tsid      uint16      `xml:"TSID,attr"`
	Sid       uint16      `xml:"SID,attr"`
	Name      string      `xml:"name"`
	Provider  string      `xml:"provider,omitempty"`
	Type      string      `xml:"type"`
	Scrambled bool        `xml:"scrambled"`
	PmtPid    uint16      `xml:"pmt_pid"`
	PcrPid    uint16      `xml:"pcr_pid,omitempty"`
	Streams   []xmlStream `xml:"streams>stream"`
	CaIds     []xmlCaId   `xml:"CA_systems>CA_system,omitempty"`
}

type xmlStream struct {
	Kind string `xml:"type,attr"`
	Pid  uint16 `xml:"pid,attr"`
	Lang string `xml:"language,attr,omitempty"`
}

type xmlCaId struct {
	Id string `xml:"ca_id,attr"`
}

func dumpXml(w io.Writer, db *sidb.Db, opts Options) error {
	var list xmlServiceList
	for _, t := range db.Output {
		list.Transponders = append(list.Transponders, xmlTransponder{
			Onid:    t.OriginalNetworkId,
			Nid:     t.NetworkId,
			Tsid:    t.TransportStreamId,
			Network: t.NetworkName,
			Params:  xmlTuningParams(t),
		})
		for _, s := range t.Services {
			if !opts.Selection.Keep(s) {
				continue
			}
			list.Services = append(list.Services, xmlServiceOf(t, s, opts))
		}
	}

	if _, err := fmt.Fprint(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", " ")
	if err := enc.Encode(&list); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

func xmlTuningParams(t *sidb.Transponder) xmlParams {
	p := xmlParams{
		Delsys:     t.Delsys.String(),
		Frequency:  t.Frequency,
		Modulation: t.Modulation.String(),
	}
	switch t.ScanType() {
	case sidb.ScanTerrestrial:
		p.Bandwidth = t.Bandwidth
		p.CodeRateHp = t.CodeRateHp.String()
		p.CodeRateLp = t.CodeRateLp.String()
		p.Transmission = t.Transmission.String()
		p.Guard = t.Guard.String()
		p.Hierarchy = xineHierarchy(t.Hierarchy)
		if t.Delsys == dvb.SysDvbt2 {
			plp := t.PlpId
			p.PlpId = &plp
		}
	case sidb.ScanCable:
		p.Symbolrate = t.Symbolrate
		p.CodeRateHp = t.CodeRateHp.String()
	}
	return p
}

func xmlServiceOf(t *sidb.Transponder, s *sidb.Service, opts Options) xmlService {
	out := xmlService{
		Onid:      t.OriginalNetworkId,
		Tsid:      t.TransportStreamId,
		Sid:       s.ServiceId,
		Name:      serviceName(s, opts),
		Provider:  transcode(s.ProviderName, opts.Charset),
		Type:      s.Type().String(),
		Scrambled: s.Scrambled,
		PmtPid:    s.PmtPid,
		PcrPid:    s.PcrPid,
	}
	if s.VideoPid != 0 {
		out.Streams = append(out.Streams, xmlStream{Kind: "video", Pid: s.VideoPid})
	}
	for _, a := range s.Audio {
		out.Streams = append(out.Streams, xmlStream{Kind: "audio", Pid: a.Pid, Lang: a.Lang})
	}
	for _, a := range s.Ac3 {
		out.Streams = append(out.Streams, xmlStream{Kind: "ac3", Pid: a.Pid, Lang: a.Lang})
	}
	if s.TeletextPid != 0 {
		out.Streams = append(out.Streams, xmlStream{Kind: "teletext", Pid: s.TeletextPid})
	}
	for _, sub := range s.Subtitling {
		out.Streams = append(out.Streams, xmlStream{Kind: "subtitling", Pid: sub.Pid, Lang: sub.Lang})
	}
	for _, id := range s.CaIds {
		out.CaIds = append(out.CaIds, xmlCaId{Id: fmt.Sprintf("0x%04X", id)})
	}
	return out
}
