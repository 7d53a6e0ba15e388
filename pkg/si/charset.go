// Copyright 2024, Chef.  All rights reserved.
// https://github.com/q191201771/dvbscan
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package si

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// DVB文本编码，见<ETSI EN 300 468> <Annex A>。
// 首字节小于0x20时是字符表选择符，否则默认表(ISO-6937)

var annexaTables = map[uint8]encoding.Encoding{
	0x01: charmap.ISO8859_5,
	0x02: charmap.ISO8859_6,
	0x03: charmap.ISO8859_7,
	0x04: charmap.ISO8859_8,
	0x05: charmap.ISO8859_9,
	0x06: charmap.ISO8859_10,
	0x09: charmap.ISO8859_13,
	0x0A: charmap.ISO8859_14,
	0x0B: charmap.ISO8859_15,
}

var annexaExtTables = map[uint8]encoding.Encoding{
	0x01: charmap.ISO8859_1,
	0x02: charmap.ISO8859_2,
	0x03: charmap.ISO8859_3,
	0x04: charmap.ISO8859_4,
	0x05: charmap.ISO8859_5,
	0x06: charmap.ISO8859_6,
	0x07: charmap.ISO8859_7,
	0x08: charmap.ISO8859_8,
	0x09: charmap.ISO8859_9,
	0x0A: charmap.ISO8859_10,
	0x0D: charmap.ISO8859_13,
	0x0E: charmap.ISO8859_14,
	0x0F: charmap.ISO8859_15,
}

var ucs2be = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

// DecodeText 解码DVB字符串为UTF-8。
// 控制码0x80~0x9F(强调开关、换行等)会被剔除。
// 解码失败时退化为原始字节过滤后的结果，扫描不应因个别坏名字中断
func DecodeText(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	var enc encoding.Encoding
	switch {
	case b[0] >= 0x20:
		return decodeIso6937(b)
	case b[0] == 0x10:
		if len(b) < 3 {
			return ""
		}
		enc = annexaExtTables[b[2]]
		b = b[3:]
	case b[0] == 0x11:
		enc = ucs2be
		b = b[1:]
	case b[0] == 0x15:
		// UTF-8
		return stripControl(string(b[1:]))
	default:
		enc = annexaTables[b[0]]
		b = b[1:]
	}
	if enc == nil {
		return stripControl(string(b))
	}
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		Log.Warnf("decode dvb text failed. b=%v, err=%+v", b, err)
		return stripControl(string(b))
	}
	return stripControl(string(out))
}

// decodeIso6937 默认表的近似解码。
// 0xC1~0xCF为前置变音符，丢弃变音保留基字符，其余按Latin-1处理
func decodeIso6937(b []byte) string {
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		c := b[i]
		if c >= 0xC1 && c <= 0xCF {
			continue
		}
		out = append(out, c)
	}
	dec, err := charmap.ISO8859_1.NewDecoder().Bytes(out)
	if err != nil {
		return stripControl(string(out))
	}
	return stripControl(string(dec))
}

func stripControl(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r >= 0x80 && r <= 0x9F {
			// 0x8A是换行，换成空格，其余控制码丢弃
			if r == 0x8A {
				out = append(out, ' ')
			}
			continue
		}
		out = append(out, r)
	}
	return string(out)
}
