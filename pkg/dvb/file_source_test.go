// Copyright 2024, Chef.  All rights reserved.
// https://github.com/q191201771/dvbscan
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package dvb_test

import (
	"bytes"
	"encoding/binary"
	"io/ioutil"
	"os"
	"testing"
	"time"

	"github.com/q191201771/dvbscan/pkg/base"
	"github.com/q191201771/dvbscan/pkg/dvb"
	"github.com/q191201771/naza/pkg/assert"
)

func makeSection(tableId uint8, tableIdExt uint16, body []byte) []byte {
	length := len(body) + 5 + 4
	sec := []byte{
		tableId,
		0xB0 | uint8(length>>8), uint8(length),
		uint8(tableIdExt >> 8), uint8(tableIdExt),
		0xC1, 0, 0,
	}
	sec = append(sec, body...)
	var crc [4]byte
	binary.BigEndian.PutUint32(crc[:], base.CalcCrc32(0xFFFFFFFF, sec))
	return append(sec, crc[:]...)
}

// makeTsPacket 只带payload的TS包，不足188字节以0xFF填充
func makeTsPacket(pid uint16, pusi bool, cc uint8, payload []byte) []byte {
	pkt := make([]byte, 188)
	pkt[0] = 0x47
	pkt[1] = uint8(pid >> 8)
	if pusi {
		pkt[1] |= 0x40
	}
	pkt[2] = uint8(pid)
	pkt[3] = 0x10 | (cc & 0x0F)
	n := copy(pkt[4:], payload)
	for i := 4 + n; i < 188; i++ {
		pkt[i] = 0xFF
	}
	return pkt
}

func writeTsFile(t *testing.T, packets ...[]byte) string {
	f, err := ioutil.TempFile("", "dvbscan_test_*.ts")
	assert.Equal(t, nil, err)
	for _, p := range packets {
		_, err = f.Write(p)
		assert.Equal(t, nil, err)
	}
	_ = f.Close()
	return f.Name()
}

func TestFileFrontend(t *testing.T) {
	fe := dvb.NewFileFrontend(0)
	assert.Equal(t, nil, fe.Tune(dvb.Tuning{Delsys: dvb.SysDvbt, Frequency: 474000000}))
	st, err := fe.ReadStatus()
	assert.Equal(t, nil, err)
	assert.Equal(t, true, st.HasLock())

	d, err := fe.CurrentDeliverySystem()
	assert.Equal(t, nil, err)
	assert.Equal(t, dvb.SysDvbt, d)

	// 指定锁定频点后其余频点无锁
	fe = dvb.NewFileFrontend(474000000)
	_ = fe.Tune(dvb.Tuning{Frequency: 482000000})
	st, _ = fe.ReadStatus()
	assert.Equal(t, false, st.HasLock())
	_ = fe.Tune(dvb.Tuning{Frequency: 474000000})
	st, _ = fe.ReadStatus()
	assert.Equal(t, true, st.HasLock())
}

func TestFileSourceNotExist(t *testing.T) {
	_, err := dvb.NewFileSource("/nonexistent/dvbscan.ts")
	assert.Equal(t, base.ErrFileNotExist, err)
}

func TestFileSourceSingleSection(t *testing.T) {
	sec := makeSection(0x00, 0x0044, []byte{0x00, 0x00, 0xE0, 0x10})
	payload := append([]byte{0x00}, sec...) // pointer_field=0
	path := writeTsFile(t, makeTsPacket(0, true, 0, payload))
	defer os.Remove(path)

	src, err := dvb.NewFileSource(path)
	assert.Equal(t, nil, err)
	defer src.Close()

	h, err := src.OpenSectionFilter(0, 0x00, 0x0044, true)
	assert.Equal(t, nil, err)

	ready, err := src.Wait([]dvb.SectionHandle{h}, 10*time.Millisecond)
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(ready))

	buf := make([]byte, dvb.MaxSectionSize)
	n, err := ready[0].ReadSection(buf)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, bytes.Equal(sec, buf[:n]))

	// 队列空了
	n, err = ready[0].ReadSection(buf)
	assert.Equal(t, nil, err)
	assert.Equal(t, 0, n)

	assert.Equal(t, nil, h.Close())
	assert.Equal(t, base.ErrFilterClosed, h.Close())
}

func TestFileSourceMultiPacketSection(t *testing.T) {
	body := make([]byte, 300)
	for i := range body {
		body[i] = uint8(i)
	}
	sec := makeSection(0x42, 0x0101, body)
	payload := append([]byte{0x00}, sec...)
	path := writeTsFile(t,
		makeTsPacket(0x11, true, 0, payload[:184]),
		makeTsPacket(0x11, false, 1, payload[184:]))
	defer os.Remove(path)

	src, err := dvb.NewFileSource(path)
	assert.Equal(t, nil, err)
	defer src.Close()

	h, _ := src.OpenSectionFilter(0x11, 0x42, -1, true)
	ready, err := src.Wait([]dvb.SectionHandle{h}, 10*time.Millisecond)
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(ready))

	buf := make([]byte, dvb.MaxSectionSize)
	n, _ := h.ReadSection(buf)
	assert.Equal(t, true, bytes.Equal(sec, buf[:n]))
}

func TestFileSourceTwoSectionsOnePacket(t *testing.T) {
	sec1 := makeSection(0x00, 0x0044, []byte{0x00, 0x00, 0xE0, 0x10})
	sec2 := makeSection(0x00, 0x0044, []byte{0x00, 0x01, 0xE1, 0x00})
	payload := append([]byte{0x00}, sec1...)
	payload = append(payload, sec2...)
	path := writeTsFile(t, makeTsPacket(0, true, 0, payload))
	defer os.Remove(path)

	src, err := dvb.NewFileSource(path)
	assert.Equal(t, nil, err)
	defer src.Close()

	h, _ := src.OpenSectionFilter(0, 0x00, 0x0044, true)
	ready, err := src.Wait([]dvb.SectionHandle{h}, 10*time.Millisecond)
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(ready))

	buf := make([]byte, dvb.MaxSectionSize)
	n, _ := h.ReadSection(buf)
	assert.Equal(t, true, bytes.Equal(sec1, buf[:n]))
	n, _ = h.ReadSection(buf)
	assert.Equal(t, true, bytes.Equal(sec2, buf[:n]))
}

func TestFileSourceFilterMismatch(t *testing.T) {
	sec := makeSection(0x00, 0x0044, []byte{0x00, 0x00, 0xE0, 0x10})
	corrupt := makeSection(0x40, 0x3001, []byte{0x00, 0x00})
	corrupt[len(corrupt)-1] ^= 0xFF
	path := writeTsFile(t,
		makeTsPacket(0, true, 0, append([]byte{0x00}, sec...)),
		makeTsPacket(0x10, true, 0, append([]byte{0x00}, corrupt...)))
	defer os.Remove(path)

	src, err := dvb.NewFileSource(path)
	assert.Equal(t, nil, err)
	defer src.Close()

	// table_id_ext不匹配收不到
	hExt, _ := src.OpenSectionFilter(0, 0x00, 0x0055, true)
	// CRC坏的丢弃
	hCrc, _ := src.OpenSectionFilter(0x10, 0x40, -1, true)
	ready, err := src.Wait([]dvb.SectionHandle{hExt, hCrc}, 10*time.Millisecond)
	assert.Equal(t, nil, err)
	assert.Equal(t, 0, len(ready))
}

func TestFileSourceResync(t *testing.T) {
	sec := makeSection(0x00, 0x0044, []byte{0x00, 0x00, 0xE0, 0x10})
	// 前导杂音打乱对齐，错位读必然吃掉第一个包，重同步应从第二个包恢复
	garbage := []byte{0x00, 0x12, 0x34}
	path := writeTsFile(t, garbage,
		makeTsPacket(0, true, 0, append([]byte{0x00}, sec...)),
		makeTsPacket(0, true, 1, append([]byte{0x00}, sec...)))
	defer os.Remove(path)

	src, err := dvb.NewFileSource(path)
	assert.Equal(t, nil, err)
	defer src.Close()

	h, _ := src.OpenSectionFilter(0, 0x00, 0x0044, true)
	ready, err := src.Wait([]dvb.SectionHandle{h}, 10*time.Millisecond)
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(ready))
}
