// Copyright 2024, Chef.  All rights reserved.
// https://github.com/q191201771/dvbscan
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"

	ts "github.com/asticode/go-astits"
	"github.com/q191201771/dvbscan/pkg/base"
	"github.com/q191201771/naza/pkg/nazalog"
)

// 检查TS录像文件里的PAT/PMT，确认dump内容完整后再喂给dvbscan做仿真扫描
//
// Usage:
//   ./bin/sectiondump -i dump.ts

func main() {
	_ = nazalog.Init(func(option *nazalog.Option) {
		option.AssertBehavior = nazalog.AssertFatal
	})
	defer nazalog.Sync()
	base.LogoutStartInfo()

	filename := parseFlag()
	file, err := os.Open(filename)
	nazalog.Assert(nil, err)
	defer file.Close()

	demuxer := ts.NewDemuxer(context.Background(), bufio.NewReader(file))

	var patCount, pmtCount int
	seenPmt := make(map[uint16]bool)
	for {
		d, err := demuxer.NextData()
		if err != nil {
			if err == ts.ErrNoMorePackets {
				break
			}
			nazalog.Errorf("demux failed. err=%+v", err)
			break
		}

		if d.PAT != nil {
			patCount++
			if patCount == 1 {
				nazalog.Infof("PAT. tsid=%d, programs=%d", d.PAT.TransportStreamID, len(d.PAT.Programs))
				for _, p := range d.PAT.Programs {
					nazalog.Infof("  program=%d, pmt_pid=%d", p.ProgramNumber, p.ProgramMapID)
				}
			}
			continue
		}

		if d.PMT != nil {
			pmtCount++
			if seenPmt[d.PMT.ProgramNumber] {
				continue
			}
			seenPmt[d.PMT.ProgramNumber] = true
			nazalog.Infof("PMT. program=%d, pcr_pid=%d, streams=%d",
				d.PMT.ProgramNumber, d.PMT.PCRPID, len(d.PMT.ElementaryStreams))
			for _, es := range d.PMT.ElementaryStreams {
				nazalog.Infof("  stream_type=0x%02x, pid=%d, descriptors=%d",
					uint8(es.StreamType), es.ElementaryPID, len(es.ElementaryStreamDescriptors))
			}
		}
	}

	nazalog.Infof("done. pat_sections=%d, pmt_sections=%d, programs=%d", patCount, pmtCount, len(seenPmt))
}

func parseFlag() string {
	i := flag.String("i", "", "specify ts file")
	flag.Parse()
	if *i == "" {
		flag.Usage()
		_, _ = fmt.Fprintf(os.Stderr, `
Example:
  %s -i dump.ts
`, os.Args[0])
		base.OsExitAndWaitPressIfWindows(1)
	}
	return *i
}
