// Copyright 2024, Chef.  All rights reserved.
// https://github.com/q191201771/dvbscan
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

//go:build linux
// +build linux

package dvb

import (
	"github.com/q191201771/dvbscan/pkg/base"
)

const (
	maxAdapters  = 8
	maxFrontends = 4
)

// AutodetectFrontend 遍历 /dev/dvb 寻找支持指定delivery system的前端。
// 多个可用时选择偏好度最高的，相同偏好度时取最先找到的。
// 返回前端和其所在adapter序号(demux在同一adapter下)
func AutodetectFrontend(want DeliverySystem) (*LinuxFrontend, int, error) {
	var best *LinuxFrontend
	bestAdapter := -1
	bestPref := 0
	for a := 0; a < maxAdapters; a++ {
		for fe := 0; fe < maxFrontends; fe++ {
			f, err := OpenFrontend(a, fe)
			if err != nil {
				if err == base.ErrDeviceBusy {
					Log.Warnf("skip busy frontend. adapter=%d, frontend=%d", a, fe)
				}
				continue
			}
			caps := f.Info()
			if !frontendUsable(caps, want) {
				Log.Debugf("frontend does not support wanted system. name=%s, want=%s", caps.Name, want.String())
				_ = f.Close()
				continue
			}
			pref := frontendPreference(caps, want)
			Log.Infof("found usable frontend. adapter=%d, frontend=%d, name=%s, preference=%d",
				a, fe, caps.Name, pref)
			if pref > bestPref {
				if best != nil {
					_ = best.Close()
				}
				best = f
				bestAdapter = a
				bestPref = pref
			} else {
				_ = f.Close()
			}
		}
	}
	if best == nil {
		return nil, -1, base.ErrNoUsableAdapter
	}
	return best, bestAdapter, nil
}

func frontendUsable(caps Caps, want DeliverySystem) bool {
	if caps.Supports(want) {
		return true
	}
	// DVB-T扫描可以由T2前端承担，反之不行
	if want == SysDvbt && caps.Supports(SysDvbt2) {
		return true
	}
	return false
}

// frontendPreference 地面扫描优先选择具备第二代解调能力的前端，
// 这样一次扫描可以同时覆盖T和T2复用
func frontendPreference(caps Caps, want DeliverySystem) int {
	switch want {
	case SysDvbt, SysDvbt2:
		if caps.Can(FeCan2gModulation) || caps.Supports(SysDvbt2) {
			return 2
		}
	}
	return 1
}
