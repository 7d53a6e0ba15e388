// Copyright 2024, Chef.  All rights reserved.
// https://github.com/q191201771/dvbscan
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package dvb

import "time"

// MaxSectionSize 单个section的最大长度，见ISO/IEC 13818-1中对
// private_section的约束(section_length最大0xFFD，加3字节头)
const MaxSectionSize = 4096

// SectionHandle 一个打开的section过滤器
type SectionHandle interface {
	// ReadSection 读取一个完整section到buf，返回长度。
	// 一次调用对应一个section。缓冲溢出返回 base.ErrSectionOverflow，
	// 此时过滤器已重新启动，调用方可选择重试
	ReadSection(buf []byte) (int, error)
	Close() error
}

// SectionSource section过滤器的来源。真实实现为demux设备，
// 仿真实现从TS录像文件中重组section
type SectionSource interface {
	// OpenSectionFilter tableIdExt传-1表示不过滤table_id_extension
	OpenSectionFilter(pid uint16, tableId uint8, tableIdExt int, checkCrc bool) (SectionHandle, error)
	// Wait 阻塞至多timeout，返回有section待读的句柄子集
	Wait(handles []SectionHandle, timeout time.Duration) ([]SectionHandle, error)
	Close() error
}
