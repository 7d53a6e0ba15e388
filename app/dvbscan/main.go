// Copyright 2024, Chef.  All rights reserved.
// https://github.com/q191201771/dvbscan
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/q191201771/dvbscan/pkg/base"
	"github.com/q191201771/dvbscan/pkg/chanlist"
	"github.com/q191201771/dvbscan/pkg/dvb"
	"github.com/q191201771/dvbscan/pkg/output"
	"github.com/q191201771/dvbscan/pkg/scan"
	"github.com/q191201771/naza/pkg/bininfo"
	"github.com/q191201771/naza/pkg/nazalog"
)

var Log = nazalog.GetGlobalLogger()

func main() {
	cfg := parseFlag()
	initLog(cfg.verbose)
	base.LogoutStartInfo()

	opts := scan.DefaultOptions()
	opts.Mode = cfg.mode
	opts.DvbtType = cfg.dvbtType
	opts.AtscType = cfg.atscType
	opts.Dedup = cfg.dedup
	opts.LongTimeout = cfg.longTimeout
	opts.TuningSpeed = cfg.tuningSpeed
	opts.PlpId = cfg.plpId
	opts.Plan = pickPlan(cfg)

	fe, src, err := openInput(cfg)
	if err != nil {
		Log.Errorf("open input failed. err=%+v", err)
		base.OsExitAndWaitPressIfWindows(1)
	}
	defer fe.Close()
	defer src.Close()
	logCaps(fe.Info())

	sc := scan.NewScanner(fe, src, opts)
	base.RunSignalHandler(func() {
		sc.Abort()
	})

	if cfg.tuningDataFile != "" {
		if err := seedFromFile(sc, cfg.tuningDataFile); err != nil {
			base.OsExitAndWaitPressIfWindows(1)
		}
	}

	if err := sc.Run(); err != nil {
		Log.Errorf("scan failed. err=%+v", err)
		base.OsExitAndWaitPressIfWindows(1)
	}

	if err := writeOutput(sc, cfg); err != nil {
		Log.Errorf("write output failed. err=%+v", err)
		base.OsExitAndWaitPressIfWindows(1)
	}

	// 中断后输出的是部分结果，用退出码区分
	if sc.Aborted() {
		os.Exit(2)
	}
}

type config struct {
	mode     scan.Mode
	dvbtType scan.DvbtType
	atscType scan.AtscType

	country     string
	planName    string
	dedup       scan.DedupLevel
	longTimeout bool
	tuningSpeed int
	plpId       int

	adapter        int
	inputFile      string
	tuningDataFile string

	format    output.Format
	selection output.Selection
	charset   string
	outFile   string

	verbose int
}

func parseFlag() config {
	var cfg config

	showVersion := flag.Bool("V", false, "show bin info and exit")
	mode := flag.String("m", "t", "scan mode: t=DVB-T/T2, c=DVB-C, a=ATSC")
	dvbtType := flag.Int("t", 0, "DVB-T type: 0=T and T2, 1=T only, 2=T2 only")
	atscType := flag.Int("A", 1, "ATSC type: 1=8VSB, 2=QAM, 3=both")
	country := flag.String("c", "", "ISO 3166 country code, picks the channel list. '?' lists known countries")
	planName := flag.String("C", "", "channel list name, overrides -c. '?' lists channel lists")
	dedup := flag.Int("d", 1, "duplicate transponder handling: 0=keep, 1=skip early, 2=drop late")
	longTimeout := flag.Bool("F", false, "use long filter timeouts")
	tuningSpeed := flag.Int("S", 1, "tuning speed: 1=fast 2=medium 3=slow")
	plpId := flag.Int("P", 0, "DVB-T2 PLP id, -1 follows the stream default")
	adapter := flag.String("a", "auto", "adapter number, or a TS file path for emulated scanning")
	tuningData := flag.String("i", "", "initial tuning data file to seed the scan")
	format := flag.String("o", "vdr", "output format: vdr|vdr20|gstreamer|xine|mplayer|vlc|xml|initial")
	selection := flag.String("s", "tr", "service selection, any of t=tv r=radio o=other")
	excludeEncrypted := flag.Bool("E", false, "exclude encrypted services from output")
	charset := flag.String("u", "", "transcode service names to this charset, e.g. ISO-8859-15")
	outFile := flag.String("O", "", "write channel list to file instead of stdout")
	quiet := flag.Bool("q", false, "only log warnings and errors")
	verbose := flag.Int("v", 0, "verbosity: 0=info 1=debug 2=trace")
	flag.Parse()

	if *showVersion {
		_, _ = fmt.Fprint(os.Stderr, bininfo.StringifyMultiLine())
		_, _ = fmt.Fprintln(os.Stderr, base.DvbscanFullInfo)
		os.Exit(0)
	}
	if *country == "?" {
		for _, line := range chanlist.KnownCountries() {
			fmt.Println(line)
		}
		os.Exit(0)
	}
	if *planName == "?" {
		for _, name := range chanlist.PlanNames() {
			fmt.Println(name)
		}
		os.Exit(0)
	}

	switch *mode {
	case "t":
		cfg.mode = scan.ModeTerrestrial
	case "c":
		cfg.mode = scan.ModeCable
	case "a":
		cfg.mode = scan.ModeAtsc
	default:
		usageExit("invalid -m, want t, c or a")
	}

	switch *dvbtType {
	case 0:
		cfg.dvbtType = scan.DvbtBoth
	case 1:
		cfg.dvbtType = scan.DvbtOnly
	case 2:
		cfg.dvbtType = scan.Dvbt2Only
	default:
		usageExit("invalid -t, want 0, 1 or 2")
	}

	switch *atscType {
	case 1:
		cfg.atscType = scan.AtscVsb
	case 2:
		cfg.atscType = scan.AtscQam
	case 3:
		cfg.atscType = scan.AtscBoth
	default:
		usageExit("invalid -A, want 1, 2 or 3")
	}

	if *dedup < int(scan.DedupNone) || *dedup > int(scan.DedupLate) {
		usageExit("invalid -d, want 0, 1 or 2")
	}
	cfg.dedup = scan.DedupLevel(*dedup)

	if *tuningSpeed < 1 || *tuningSpeed > 3 {
		usageExit("invalid -S, want 1, 2 or 3")
	}
	cfg.tuningSpeed = *tuningSpeed

	f, err := output.FormatByName(*format)
	if err != nil {
		usageExit("invalid -o, unknown output format")
	}
	cfg.format = f

	sel, ok := parseSelection(*selection)
	if !ok {
		usageExit("invalid -s, want a subset of t, r, o")
	}
	sel.ExcludeEncrypted = *excludeEncrypted
	cfg.selection = sel

	if n, err := strconv.Atoi(*adapter); err == nil {
		cfg.adapter = n
	} else if *adapter == "auto" {
		cfg.adapter = -1
	} else {
		cfg.inputFile = *adapter
	}

	cfg.country = strings.ToUpper(*country)
	cfg.planName = *planName
	cfg.longTimeout = *longTimeout
	cfg.plpId = *plpId
	cfg.tuningDataFile = *tuningData
	cfg.charset = *charset
	cfg.outFile = *outFile
	cfg.verbose = *verbose
	if *quiet {
		cfg.verbose = -1
	}
	return cfg
}

func usageExit(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	flag.Usage()
	_, _ = fmt.Fprintf(os.Stderr, `
Example:
  ./bin/dvbscan -c DE -o vdr -O channels.conf
  ./bin/dvbscan -m c -c DE -o xine
  ./bin/dvbscan -a dump.ts -o xml
`)
	os.Exit(-1)
}

func initLog(verbose int) {
	level := nazalog.LevelInfo
	switch {
	case verbose < 0:
		level = nazalog.LevelWarn
	case verbose >= 2:
		level = nazalog.LevelTrace
	case verbose == 1:
		level = nazalog.LevelDebug
	}
	_ = nazalog.Init(func(option *nazalog.Option) {
		option.Level = level
		option.AssertBehavior = nazalog.AssertError
	})
}

func parseSelection(s string) (output.Selection, bool) {
	var sel output.Selection
	for _, c := range s {
		switch c {
		case 't':
			sel.Tv = true
		case 'r':
			sel.Radio = true
		case 'o':
			sel.Other = true
		default:
			return sel, false
		}
	}
	return sel, true
}

func pickPlan(cfg config) *chanlist.Plan {
	if cfg.mode == scan.ModeCable {
		return chanlist.DefaultCablePlan()
	}
	if cfg.planName != "" {
		p, err := chanlist.PlanByName(cfg.planName)
		if err != nil {
			usageExit("unknown channel list " + cfg.planName)
		}
		return p
	}
	if cfg.country != "" {
		return chanlist.PlanForCountry(cfg.country)
	}
	return chanlist.DefaultPlan()
}

func logCaps(caps dvb.Caps) {
	var systems []string
	for _, d := range caps.DeliverySystems {
		systems = append(systems, d.String())
	}
	Log.Infof("frontend. name=%s, api=%d.%d, freq=[%d, %d], systems=%s",
		caps.Name, caps.ApiVersion>>8, caps.ApiVersion&0xFF,
		caps.FrequencyMin, caps.FrequencyMax, strings.Join(systems, "/"))
}

func openInput(cfg config) (dvb.Frontend, dvb.SectionSource, error) {
	if cfg.inputFile != "" {
		Log.Infof("emulated scan from file. path=%s", cfg.inputFile)
		src, err := dvb.NewFileSource(cfg.inputFile)
		if err != nil {
			return nil, nil, err
		}
		return dvb.NewFileFrontend(0), src, nil
	}
	return openDevice(cfg.adapter, wantedDeliverySystem(cfg))
}

func wantedDeliverySystem(cfg config) dvb.DeliverySystem {
	switch cfg.mode {
	case scan.ModeCable:
		return dvb.SysDvbcAnnexA
	case scan.ModeAtsc:
		return dvb.SysAtsc
	}
	if cfg.dvbtType == scan.Dvbt2Only {
		return dvb.SysDvbt2
	}
	return dvb.SysDvbt
}

func seedFromFile(sc *scan.Scanner, path string) error {
	file, err := os.Open(path)
	if err != nil {
		Log.Errorf("open tuning data failed. path=%s, err=%+v", path, err)
		return err
	}
	defer file.Close()
	tunings, err := output.ParseTuningData(file)
	if err != nil {
		return err
	}
	Log.Infof("seeded scan list from tuning data. path=%s, count=%d", path, len(tunings))
	sc.Seed(tunings)
	return nil
}

func writeOutput(sc *scan.Scanner, cfg config) error {
	w := os.Stdout
	if cfg.outFile != "" {
		file, err := os.Create(cfg.outFile)
		if err != nil {
			return err
		}
		defer file.Close()
		w = file
	}
	return output.Dump(w, cfg.format, sc.Db(), output.Options{
		Selection: cfg.selection,
		Charset:   cfg.charset,
	})
}
