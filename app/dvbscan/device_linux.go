// Copyright 2024, Chef.  All rights reserved.
// https://github.com/q191201771/dvbscan
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

//go:build linux
// +build linux

package main

import (
	"github.com/q191201771/dvbscan/pkg/dvb"
)

func openDevice(adapter int, want dvb.DeliverySystem) (dvb.Frontend, dvb.SectionSource, error) {
	if adapter < 0 {
		fe, adapterIdx, err := dvb.AutodetectFrontend(want)
		if err != nil {
			return nil, nil, err
		}
		return fe, dvb.NewLinuxSectionSource(adapterIdx, 0), nil
	}
	fe, err := dvb.OpenFrontend(adapter, 0)
	if err != nil {
		return nil, nil, err
	}
	return fe, dvb.NewLinuxSectionSource(adapter, 0), nil
}
