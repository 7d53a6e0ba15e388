// Copyright 2024, Chef.  All rights reserved.
// https://github.com/q191201771/dvbscan
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import (
	"errors"
	"fmt"
)

// ----- 通用的 ---------------------------------------------------------------------------------------------------------

var (
	ErrShortBuffer  = errors.New("dvbscan: buffer too short")
	ErrFileNotExist = errors.New("dvbscan: file not exist")
)

// ----- pkg/dvb -------------------------------------------------------------------------------------------------------

var (
	ErrDeviceNotFound   = errors.New("dvbscan.dvb: device not found")
	ErrDeviceBusy       = errors.New("dvbscan.dvb: device busy")
	ErrDevicePermission = errors.New("dvbscan.dvb: permission denied")
	ErrIoctl            = errors.New("dvbscan.dvb: ioctl failed")
	ErrApiVersion       = errors.New("dvbscan.dvb: driver does not support DVB API v5")
	ErrTuneUnsupported  = errors.New("dvbscan.dvb: tuning parameters unsupported by driver")
	ErrTuneOutOfRange   = errors.New("dvbscan.dvb: tuning parameters out of driver range")
	ErrNoUsableAdapter  = errors.New("dvbscan.dvb: no usable adapter found")
	ErrSectionOverflow  = errors.New("dvbscan.dvb: section read overflow")
)

// ----- pkg/si --------------------------------------------------------------------------------------------------------

var (
	ErrSi               = errors.New("dvbscan.si: malformed section")
	ErrSiCrc            = errors.New("dvbscan.si: section crc mismatch")
	ErrSiTableId        = errors.New("dvbscan.si: unexpected table id")
	ErrSiLengthMismatch = errors.New("dvbscan.si: section length mismatch")
)

// ----- pkg/sifilter --------------------------------------------------------------------------------------------------

var (
	ErrFilterCapacity = errors.New("dvbscan.sifilter: all filter slots busy")
	ErrFilterClosed   = errors.New("dvbscan.sifilter: filter already closed")
)

// ----- pkg/chanlist --------------------------------------------------------------------------------------------------

var ErrUnknownCountry = errors.New("dvbscan.chanlist: unknown country")

// ----- pkg/output ----------------------------------------------------------------------------------------------------

var ErrTuningData = errors.New("dvbscan.output: invalid initial tuning data")

func NewErrIoctl(name string, err error) error {
	return fmt.Errorf("%w. name=%s, err=%v", ErrIoctl, name, err)
}
