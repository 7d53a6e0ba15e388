// Copyright 2024, Chef.  All rights reserved.
// https://github.com/q191201771/dvbscan
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package output

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/q191201771/dvbscan/pkg/dvb"
	"github.com/q191201771/dvbscan/pkg/sidb"
)

// vlc吃xspf播放列表，调谐参数放在vlc:option扩展里

func dumpVlc(w io.Writer, db *sidb.Db, opts Options) error {
	if _, err := fmt.Fprint(w, xml.Header); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, `<playlist version="1" xmlns="http://xspf.org/ns/0/" xmlns:vlc="http://www.videolan.org/vlc/playlist/ns/0/">`); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, " <title>DVB Playlist</title>\n <trackList>"); err != nil {
		return err
	}
	id := 0
	for _, t := range db.Output {
		for _, s := range t.Services {
			if !opts.Selection.Keep(s) {
				continue
			}
			if err := writeVlcTrack(w, t, s, opts, id); err != nil {
				return err
			}
			id++
		}
	}
	_, err := fmt.Fprintln(w, " </trackList>\n</playlist>")
	return err
}

func writeVlcTrack(w io.Writer, t *sidb.Transponder, s *sidb.Service, opts Options, id int) error {
	access := "dvb-t"
	switch t.ScanType() {
	case sidb.ScanCable:
		access = "dvb-c"
	case sidb.ScanAtsc:
		access = "atsc"
	}
	if t.Delsys == dvb.SysDvbt2 {
		access = "dvb-t2"
	}

	fmt.Fprintln(w, "  <track>")
	fmt.Fprintf(w, "   <title>%s</title>\n", xmlEscape(serviceName(s, opts)))
	fmt.Fprintf(w, "   <location>%s://frequency=%d</location>\n", access, t.Frequency)
	fmt.Fprintln(w, `   <extension application="http://www.videolan.org/vlc/playlist/0">`)
	fmt.Fprintf(w, "    <vlc:id>%d</vlc:id>\n", id)
	switch t.ScanType() {
	case sidb.ScanTerrestrial:
		fmt.Fprintf(w, "    <vlc:option>dvb-bandwidth=%d</vlc:option>\n", t.Bandwidth/1000000)
		if t.Delsys == dvb.SysDvbt2 {
			fmt.Fprintf(w, "    <vlc:option>dvb-plp-id=%d</vlc:option>\n", t.PlpId)
		}
	case sidb.ScanCable:
		fmt.Fprintf(w, "    <vlc:option>dvb-srate=%d</vlc:option>\n", t.Symbolrate)
	case sidb.ScanAtsc:
		fmt.Fprintf(w, "    <vlc:option>dvb-modulation=%s</vlc:option>\n", xineModulation(t.Modulation))
	}
	fmt.Fprintf(w, "    <vlc:option>program=%d</vlc:option>\n", s.ServiceId)
	fmt.Fprintln(w, "   </extension>")
	_, err := fmt.Fprintln(w, "  </track>")
	return err
}

func xmlEscape(s string) string {
	var b bytes.Buffer
	// EscapeText对字符串内容不会失败
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
