// Copyright 2024, Chef.  All rights reserved.
// https://github.com/q191201771/dvbscan
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

//go:build !linux
// +build !linux

package main

import (
	"github.com/q191201771/dvbscan/pkg/base"
	"github.com/q191201771/dvbscan/pkg/dvb"
)

// 硬件访问依赖Linux DVB API，其他平台只能用TS文件仿真扫描
func openDevice(adapter int, want dvb.DeliverySystem) (dvb.Frontend, dvb.SectionSource, error) {
	return nil, nil, base.ErrDeviceNotFound
}
