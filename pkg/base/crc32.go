// Copyright 2024, Chef.  All rights reserved.
// https://github.com/q191201771/dvbscan
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

// CRC-32/MPEG-2，见ISO/IEC 13818-1 Annex A。
// 多项式0x04C11DB7，MSB先行，初值0xFFFFFFFF，无最终异或。
// 标准库hash/crc32只有反射型实现，算不出这个变体

var crc32MpegTable [256]uint32

func init() {
	for i := 0; i < 256; i++ {
		c := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if c&0x80000000 != 0 {
				c = (c << 1) ^ 0x04C11DB7
			} else {
				c <<= 1
			}
		}
		crc32MpegTable[i] = c
	}
}

func CalcCrc32(crc uint32, buffer []byte) uint32 {
	for _, b := range buffer {
		crc = (crc << 8) ^ crc32MpegTable[uint8(crc>>24)^b]
	}
	return crc
}

// CheckCrc32 对带CRC尾部的完整section计算，余数为0即校验通过
func CheckCrc32(section []byte) bool {
	return CalcCrc32(0xFFFFFFFF, section) == 0
}
