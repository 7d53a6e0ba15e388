// Copyright 2024, Chef.  All rights reserved.
// https://github.com/q191201771/dvbscan
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package scan

import (
	"fmt"
	"time"

	"github.com/q191201771/dvbscan/pkg/base"
	"github.com/q191201771/dvbscan/pkg/dvb"
	"github.com/q191201771/dvbscan/pkg/si"
	"github.com/q191201771/dvbscan/pkg/sidb"
	"github.com/q191201771/dvbscan/pkg/sifilter"
	"github.com/q191201771/naza/pkg/nazaatomic"
)

const (
	settleDelay = 100 * time.Millisecond
	statusPoll  = 50 * time.Millisecond
)

// Scanner 整次扫描的执行体。
// 状态全部收在这里，没有包级可变量，一个进程可以并行跑多个Scanner
type Scanner struct {
	opts Options
	fe   dvb.Frontend
	src  dvb.SectionSource
	db   *sidb.Db
	caps dvb.Caps

	abort nazaatomic.Bool
}

func NewScanner(fe dvb.Frontend, src dvb.SectionSource, opts Options) *Scanner {
	if opts.TuningSpeed <= 0 {
		opts.TuningSpeed = 1
	}
	return &Scanner{
		opts: opts,
		fe:   fe,
		src:  src,
		db:   sidb.NewDb(),
		caps: fe.Info(),
	}
}

func (sc *Scanner) Db() *sidb.Db {
	return sc.db
}

// Abort 请求尽快停止，已有结果保留。可从信号回调等其他goroutine调用
func (sc *Scanner) Abort() {
	sc.abort.Store(true)
}

func (sc *Scanner) Aborted() bool {
	return sc.abort.Load()
}

// Seed 用外部初始调谐数据预填待扫列表
func (sc *Scanner) Seed(tunings []dvb.Tuning) {
	for _, tu := range tunings {
		t := sc.db.AllocTransponder(tu.Delsys, tu.Frequency, 0)
		t.Tuning = tu
	}
}

// Run 先跑外部种子，再全带扫描，NIT发现的频点随时补进队列
func (sc *Scanner) Run() error {
	timer := base.NewRunTimer()
	sweep := NewSweep(sc.opts)
	Log.Infof("scan started. plan=%s, channels=[%d, %d], frontend=%s",
		sweep.Plan().Name, sweep.Plan().ChannelMin(), sweep.Plan().ChannelMax(), sc.caps.Name)

	sc.drainNewList()
	for {
		tp, ok := sweep.Next()
		if !ok || sc.abort.Load() {
			break
		}
		if !sc.caps.Supports(tp.Delsys) &&
			!(tp.Delsys == dvb.SysDvbt && sc.caps.Supports(dvb.SysDvbt2)) {
			continue
		}
		tu := sc.tuningFromPoint(tp)
		probe := &sidb.Transponder{Tuning: tu}
		if sc.db.IsAlreadyScanned(probe) {
			Log.Debugf("frequency already scanned, skip. delsys=%s, f=%d", tu.Delsys.String(), tu.Frequency)
			continue
		}
		sc.scanPoint(tu, nil)
		// NIT种下的频点优先于继续扫带，它们大概率有信号
		sc.drainNewList()
	}
	sc.drainNewList()
	Log.Infof("scan finished. scanned=%d, output=%d, elapsed=%s",
		len(sc.db.Scanned), len(sc.db.Output), timer.Elapsed())
	return nil
}

func (sc *Scanner) drainNewList() {
	for !sc.abort.Load() {
		t := sc.db.PopNew()
		if t == nil {
			return
		}
		if sc.db.IsAlreadyScanned(t) {
			continue
		}
		sc.scanPoint(t.Tuning, t)
	}
}

func (sc *Scanner) tuningFromPoint(tp TuningPoint) dvb.Tuning {
	tu := dvb.Tuning{
		Delsys:       tp.Delsys,
		Frequency:    tp.Frequency,
		Inversion:    dvb.InversionAuto,
		Bandwidth:    tp.Bandwidth,
		CodeRateHp:   dvb.FecAuto,
		CodeRateLp:   dvb.FecAuto,
		Modulation:   tp.Modulation,
		Transmission: dvb.TransmissionAuto,
		Guard:        dvb.GuardAuto,
		Hierarchy:    dvb.HierarchyAuto,
		Symbolrate:   tp.Symbolrate,
	}
	if tp.Delsys == dvb.SysDvbt2 && sc.opts.PlpId >= 0 {
		tu.PlpId = uint8(sc.opts.PlpId)
	}
	return tu
}

// adjustToCaps 前端没有auto能力的参数换成确定值
func (sc *Scanner) adjustToCaps(tu dvb.Tuning) dvb.Tuning {
	if !sc.caps.Can(dvb.FeCanInversionAuto) && tu.Inversion == dvb.InversionAuto {
		tu.Inversion = dvb.InversionOff
	}
	if !sc.caps.Can(dvb.FeCanFecAuto) {
		if tu.CodeRateHp == dvb.FecAuto {
			tu.CodeRateHp = dvb.FecNone
		}
		if tu.CodeRateLp == dvb.FecAuto {
			tu.CodeRateLp = dvb.FecNone
		}
	}
	if !sc.caps.Can(dvb.FeCanQamAuto) && tu.Modulation == dvb.QamAuto {
		tu.Modulation = dvb.Qam64
	}
	if !sc.caps.Can(dvb.FeCanTransmissionAuto) && tu.Transmission == dvb.TransmissionAuto {
		tu.Transmission = dvb.Transmission8k
	}
	if !sc.caps.Can(dvb.FeCanGuardIntervalAuto) && tu.Guard == dvb.GuardAuto {
		tu.Guard = dvb.Guard8
	}
	if !sc.caps.Can(dvb.FeCanHierarchyAuto) && tu.Hierarchy == dvb.HierarchyAuto {
		tu.Hierarchy = dvb.HierarchyNone
	}
	return tu
}

// scanPoint 调谐一个点。seeded非空时使用数据库中已存在的项
func (sc *Scanner) scanPoint(tu dvb.Tuning, seeded *sidb.Transponder) {
	tu = sc.adjustToCaps(tu)
	Log.Debugf("tune. delsys=%s, f=%d, bw=%d, sr=%d",
		tu.Delsys.String(), tu.Frequency, tu.Bandwidth, tu.Symbolrate)
	if err := sc.fe.Tune(tu); err != nil {
		Log.Warnf("tune failed. f=%d, err=%+v", tu.Frequency, err)
		if seeded != nil {
			sc.db.MarkScanned(seeded)
		}
		return
	}
	Clock.Sleep(settleDelay)

	if !sc.waitStatus(dvb.FeHasSignal|dvb.FeHasCarrier, sc.carrierTimeout(tu.Delsys)) {
		if seeded != nil {
			sc.db.MarkScanned(seeded)
		}
		return
	}
	if !sc.waitStatus(dvb.FeHasLock, sc.lockTimeout(tu.Delsys)) {
		Log.Debugf("carrier without lock. f=%d", tu.Frequency)
		if seeded != nil {
			sc.db.MarkScanned(seeded)
		}
		return
	}

	// 回读delivery system。部分前端(如cxd2820r)在T/T2间自主切换，
	// 回读与请求不一致时放弃本次尝试，该频点由另一代际的扫描趟覆盖
	if rd, err := sc.fe.CurrentDeliverySystem(); err == nil && rd != tu.Delsys {
		Log.Debugf("delivery system readback mismatch, abandon. want=%s, got=%s, f=%d",
			tu.Delsys.String(), rd.String(), tu.Frequency)
		return
	}

	t := seeded
	if t == nil {
		t = sc.db.AllocTransponder(tu.Delsys, tu.Frequency, 0)
		sc.db.RemoveNew(t)
	}
	t.Tuning = tu
	sc.db.MarkScanned(t)
	sc.logSignal(tu.Frequency)
	sc.scanTransponder(t)
}

func (sc *Scanner) carrierTimeout(d dvb.DeliverySystem) time.Duration {
	var ms time.Duration
	switch sidb.ScanTypeOf(d) {
	case sidb.ScanTerrestrial:
		ms = 2000 * time.Millisecond
	case sidb.ScanCable:
		ms = 1500 * time.Millisecond
	default:
		ms = 3000 * time.Millisecond
	}
	return ms * time.Duration(sc.opts.TuningSpeed)
}

func (sc *Scanner) lockTimeout(d dvb.DeliverySystem) time.Duration {
	var ms time.Duration
	switch sidb.ScanTypeOf(d) {
	case sidb.ScanTerrestrial:
		ms = 4000 * time.Millisecond
	case sidb.ScanCable:
		ms = 3000 * time.Millisecond
	default:
		ms = 8000 * time.Millisecond
	}
	return ms * time.Duration(sc.opts.TuningSpeed)
}

// waitStatus 轮询前端状态直到出现期望位或超时
func (sc *Scanner) waitStatus(want dvb.Status, timeout time.Duration) bool {
	deadline := Clock.Now().Add(timeout)
	for {
		if sc.abort.Load() {
			return false
		}
		st, err := sc.fe.ReadStatus()
		if err != nil {
			Log.Warnf("read status failed. err=%+v", err)
			return false
		}
		if st&want == want {
			return true
		}
		if Clock.Now().After(deadline) {
			return false
		}
		Clock.Sleep(statusPoll)
	}
}

func (sc *Scanner) logSignal(frequency uint32) {
	sig, err := sc.fe.ReadSignal()
	if err != nil {
		return
	}
	Log.Infof("locked. f=%d, strength=%s, cnr=%s",
		frequency, formatStat(sig.Strength), formatStat(sig.Cnr))
}

func formatStat(st dvb.SignalStat) string {
	switch st.Scale {
	case dvb.ScaleDecibel:
		return fmt.Sprintf("%.1fdB", float64(st.Svalue)/1000)
	case dvb.ScaleRelative:
		return fmt.Sprintf("%d%%", st.Uvalue*100/65535)
	}
	return "n/a"
}

// scanTransponder 锁定后的表收集: 先初始查询(PAT定tsid、NIT定网络三元组)，
// 去重判定，然后服务扫描(SDT+PAT+每服务一个PMT)
func (sc *Scanner) scanTransponder(t *sidb.Transponder) {
	sched := sifilter.NewScheduler(sc.src, sc.opts.LongTimeout)
	defer sched.CloseAll()

	// ----- 初始查询 -----
	networkPid := uint16(si.PidNit)
	patFilter := &sifilter.Filter{
		Pid: si.PidPat, TableId: si.TableIdPat, TableIdExt: -1,
		RunOnce: true, CheckCrc: true,
		Handler: func(f *sifilter.Filter, sec []byte) {
			pat, err := si.ParsePat(sec)
			if err != nil {
				return
			}
			_, npid := sidb.ApplyPat(t, &pat)
			if npid != 0 {
				networkPid = npid
			}
		},
	}
	_ = sched.Add(patFilter)
	sc.runScheduler(sched)
	if sc.abort.Load() {
		return
	}
	// 锁上了却收不到PAT，不是可用的复用，丢弃
	if patFilter.Received() == 0 {
		Log.Infof("no PAT on locked carrier, discard. f=%d, elapsed=%v", t.Frequency, patFilter.Elapsed())
		return
	}

	if sidb.ScanTypeOf(t.Delsys) != sidb.ScanAtsc {
		_ = sched.Add(&sifilter.Filter{
			Pid: networkPid, TableId: si.TableIdNitActual, TableIdExt: -1,
			RunOnce: true, CheckCrc: true,
			Handler: func(f *sifilter.Filter, sec []byte) {
				nit, err := si.ParseNit(sec)
				if err != nil {
					return
				}
				sidb.ApplyNit(t, &nit)
			},
		})
		sc.runScheduler(sched)
		if sc.abort.Load() {
			return
		}
	}

	if sc.opts.Dedup == DedupEarly && sc.db.IsAlreadyFound(t) {
		Log.Infof("duplicate multiplex, skip service scan. %s", t.String())
		return
	}

	// ----- 服务扫描 -----
	pmtInstalled := make(map[uint16]bool)
	installPmt := func(sched *sifilter.Scheduler, req sidb.PmtRequest) {
		if pmtInstalled[req.ServiceId] {
			return
		}
		pmtInstalled[req.ServiceId] = true
		_ = sched.Add(&sifilter.Filter{
			Pid: req.PmtPid, TableId: si.TableIdPmt, TableIdExt: int(req.ServiceId),
			ServiceId: req.ServiceId, RunOnce: true, CheckCrc: true,
			Handler: func(f *sifilter.Filter, sec []byte) {
				pmt, err := si.ParsePmt(sec)
				if err != nil {
					return
				}
				svc := sidb.FindService(t, f.ServiceId)
				if svc == nil {
					return
				}
				sidb.ApplyPmt(svc, &pmt)
			},
		})
	}

	if sidb.ScanTypeOf(t.Delsys) == sidb.ScanAtsc {
		vctTable := uint8(si.TableIdTvct)
		if t.Modulation != dvb.Vsb8 && t.Modulation != dvb.Vsb16 {
			vctTable = si.TableIdCvct
		}
		_ = sched.Add(&sifilter.Filter{
			Pid: si.PidVct, TableId: vctTable, TableIdExt: -1,
			RunOnce: true, CheckCrc: true,
			Handler: func(f *sifilter.Filter, sec []byte) {
				vct, err := si.ParseVct(sec)
				if err != nil {
					return
				}
				sidb.ApplyVct(t, &vct)
			},
		})
	} else {
		_ = sched.Add(&sifilter.Filter{
			Pid: si.PidSdt, TableId: si.TableIdSdtActual, TableIdExt: -1,
			RunOnce: true, CheckCrc: true,
			Handler: func(f *sifilter.Filter, sec []byte) {
				sdt, err := si.ParseSdt(sec)
				if err != nil {
					return
				}
				sidb.ApplySdt(t, &sdt)
			},
		})
	}
	_ = sched.Add(&sifilter.Filter{
		Pid: si.PidPat, TableId: si.TableIdPat, TableIdExt: -1,
		RunOnce: true, CheckCrc: true,
		Handler: func(f *sifilter.Filter, sec []byte) {
			pat, err := si.ParsePat(sec)
			if err != nil {
				return
			}
			requests, _ := sidb.ApplyPat(t, &pat)
			for _, req := range requests {
				installPmt(sched, req)
			}
		},
	})
	sc.runScheduler(sched)

	// NIT通告的备选频点进入待扫队列，继承本复用的调谐参数
	for _, cell := range t.Cells {
		nt := sc.db.AllocTransponder(t.Delsys, cell, 0)
		if nt.Bandwidth == 0 && nt.Symbolrate == 0 {
			tu := t.Tuning
			tu.Frequency = cell
			nt.Tuning = tu
		}
	}

	if sc.opts.Dedup == DedupLate && sc.db.IsAlreadyFound(t) {
		Log.Infof("duplicate multiplex dropped after full scan. %s", t.String())
		return
	}
	sc.db.AddOutput(t)
	Log.Infof("transponder done. %s", t.String())
}

func (sc *Scanner) runScheduler(sched *sifilter.Scheduler) {
	for sched.Run() {
		if sc.abort.Load() {
			sched.CloseAll()
			return
		}
	}
}
