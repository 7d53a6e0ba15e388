// Copyright 2024, Chef.  All rights reserved.
// https://github.com/q191201771/dvbscan
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package sifilter

import (
	"time"

	"github.com/q191201771/dvbscan/pkg/si"
)

// RepetitionRate 表的标称重发周期，单位秒。
// 过滤器超时取1秒加重发周期，长超时模式下周期乘5
func RepetitionRate(tableId uint8) time.Duration {
	switch tableId {
	case si.TableIdPat, si.TableIdPmt:
		return 1 * time.Second
	case si.TableIdSdtActual, si.TableIdSdtOther:
		return 2 * time.Second
	case si.TableIdNitActual, si.TableIdNitOther:
		return 10 * time.Second
	case si.TableIdTvct, si.TableIdCvct:
		return 2 * time.Second
	}
	return 30 * time.Second
}

func initialTimeout(tableId uint8, long bool) time.Duration {
	rate := RepetitionRate(tableId)
	if long {
		rate *= 5
	}
	return time.Second + rate
}

// crcFailTimeout CRC校验失败后给足重试时间
func crcFailTimeout(tableId uint8, long bool) time.Duration {
	rate := RepetitionRate(tableId)
	if long {
		rate *= 5
	}
	return 30*time.Second + rate
}
