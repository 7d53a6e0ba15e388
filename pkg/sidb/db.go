// Copyright 2024, Chef.  All rights reserved.
// https://github.com/q191201771/dvbscan
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package sidb

import (
	"github.com/q191201771/dvbscan/pkg/dvb"
)

// 去重时认为是同一载波的频率窗口
const FrequencyWindow = 750000 // Hz

// Db 三个有序列表贯穿整次扫描:
//
//   - New: 已知频点，尚未调谐。初始来自频道表或种子数据，NIT会继续补充
//   - Scanned: 已尝试调谐(无论成败)
//   - Output: 最终输出
//
// 三个列表都保持插入顺序
type Db struct {
	New     []*Transponder
	Scanned []*Transponder
	Output  []*Transponder

	nextId int
	byId   map[int]*Transponder
}

func NewDb() *Db {
	return &Db{
		nextId: 1,
		byId:   make(map[int]*Transponder),
	}
}

// AllocTransponder 在New中查找(delsys同类, 频率相同, 极化相同)的已有项，
// 没有则新建并追加。frequency为0表示频率未知，这类项不参与查找去重
func (db *Db) AllocTransponder(delsys dvb.DeliverySystem, frequency uint32, pol dvb.Polarization) *Transponder {
	if frequency != 0 {
		for _, t := range db.New {
			if ScanTypeOf(t.Delsys) == ScanTypeOf(delsys) && t.Frequency == frequency {
				return t
			}
		}
	}
	t := &Transponder{Id: db.nextId}
	db.nextId++
	t.Delsys = delsys
	t.Frequency = frequency
	db.New = append(db.New, t)
	db.byId[t.Id] = t
	return t
}

func (db *Db) TransponderById(id int) *Transponder {
	return db.byId[id]
}

// PopNew 取出New列表头部的下一个待调谐项
func (db *Db) PopNew() *Transponder {
	if len(db.New) == 0 {
		return nil
	}
	t := db.New[0]
	db.New = db.New[1:]
	return t
}

// RemoveNew 把指定项摘出New列表，项不在表内时为空操作
func (db *Db) RemoveNew(t *Transponder) {
	for i, n := range db.New {
		if n == t {
			db.New = append(db.New[:i], db.New[i+1:]...)
			return
		}
	}
}

func (db *Db) MarkScanned(t *Transponder) {
	db.Scanned = append(db.Scanned, t)
}

func (db *Db) AddOutput(t *Transponder) {
	db.Output = append(db.Output, t)
}

// IsAlreadyScanned Scanned中存在同类且频率在窗口内的项。
// ATSC还要求调制方式一致，同一频点可能分别以VSB和QAM扫过
func (db *Db) IsAlreadyScanned(t *Transponder) bool {
	for _, s := range db.Scanned {
		if s.ScanType() != t.ScanType() {
			continue
		}
		if !nearlySameFrequency(s.Frequency, t.Frequency) {
			continue
		}
		if t.ScanType() == ScanAtsc && s.Modulation != t.Modulation {
			continue
		}
		return true
	}
	return false
}

// IsAlreadyFound Output中存在三元组相同但频率不同的其他项，
// 说明同一复用已经由别的频点(中继)收下来了
func (db *Db) IsAlreadyFound(t *Transponder) bool {
	for _, o := range db.Output {
		if o.Id == t.Id {
			continue
		}
		if o.TripleEquals(t) && o.Frequency != t.Frequency {
			return true
		}
	}
	return false
}

func nearlySameFrequency(a uint32, b uint32) bool {
	if a > b {
		return a-b < FrequencyWindow
	}
	return b-a < FrequencyWindow
}

// FindService 在transponder内按service_id查找
func FindService(t *Transponder, serviceId uint16) *Service {
	for _, s := range t.Services {
		if s.ServiceId == serviceId {
			return s
		}
	}
	return nil
}

// AllocService 查找或创建，创建即追加到transponder的服务列表
func AllocService(t *Transponder, serviceId uint16) *Service {
	if s := FindService(t, serviceId); s != nil {
		return s
	}
	s := &Service{
		TransponderId: t.Id,
		ServiceId:     serviceId,
	}
	t.Services = append(t.Services, s)
	return s
}
