// Copyright 2024, Chef.  All rights reserved.
// https://github.com/q191201771/dvbscan
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package output

import (
	"io"
	"strings"

	"github.com/q191201771/dvbscan/pkg/base"
	"github.com/q191201771/dvbscan/pkg/sidb"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

type Format uint8

const (
	FormatVdr Format = iota // VDR 2.1+
	FormatVdr20
	FormatGstreamer
	FormatXine
	FormatMplayer
	FormatVlc
	FormatXml
	FormatInitialTuningData
)

func FormatByName(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "vdr":
		return FormatVdr, nil
	case "vdr20":
		return FormatVdr20, nil
	case "gstreamer":
		return FormatGstreamer, nil
	case "xine":
		return FormatXine, nil
	case "mplayer":
		return FormatMplayer, nil
	case "vlc":
		return FormatVlc, nil
	case "xml":
		return FormatXml, nil
	case "initial":
		return FormatInitialTuningData, nil
	}
	return FormatVdr, base.ErrTuningData
}

// Selection 服务筛选
type Selection struct {
	Tv               bool
	Radio            bool
	Other            bool
	ExcludeEncrypted bool
}

func DefaultSelection() Selection {
	return Selection{Tv: true, Radio: true}
}

func (sel Selection) Keep(s *sidb.Service) bool {
	if sel.ExcludeEncrypted && s.Scrambled {
		return false
	}
	switch s.Type() {
	case sidb.ServiceTv:
		return sel.Tv
	case sidb.ServiceRadio:
		return sel.Radio
	}
	return sel.Other
}

// Options 输出参数
type Options struct {
	Selection Selection
	// 输出字符集，空表示UTF-8。vlc/xml默认转ISO-8859-1
	Charset string
}

// Dump 把数据库按指定格式写出
func Dump(w io.Writer, format Format, db *sidb.Db, opts Options) error {
	switch format {
	case FormatVdr, FormatVdr20, FormatGstreamer:
		return dumpVdr(w, format, db, opts)
	case FormatXine, FormatMplayer:
		return dumpXine(w, db, opts)
	case FormatVlc:
		return dumpVlc(w, db, opts)
	case FormatXml:
		return dumpXml(w, db, opts)
	case FormatInitialTuningData:
		return DumpTuningData(w, db)
	}
	return base.ErrTuningData
}

// transcode 服务名转目标字符集，转不过去的字符替换处理
func transcode(s string, charset string) string {
	enc := encoderFor(charset)
	if enc == nil {
		return s
	}
	out, err := enc.NewEncoder().String(s)
	if err != nil {
		// 含目标集外字符，逐字符替换后重试
		var b strings.Builder
		for _, r := range s {
			c, err2 := enc.NewEncoder().String(string(r))
			if err2 != nil {
				b.WriteByte('?')
				continue
			}
			b.WriteString(c)
		}
		return b.String()
	}
	return out
}

func encoderFor(charset string) encoding.Encoding {
	switch strings.ToUpper(charset) {
	case "ISO-8859-1", "LATIN1":
		return charmap.ISO8859_1
	case "ISO-8859-15", "LATIN9":
		return charmap.ISO8859_15
	}
	return nil
}
