// Copyright 2024, Chef.  All rights reserved.
// https://github.com/q191201771/dvbscan
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import "fmt"

const DvbscanVersion = "v0.2.0"

var (
	DvbscanLibraryName = "dvbscan"
	DvbscanGithubSite  = "https://github.com/q191201771/dvbscan"
	DvbscanFullInfo    = fmt.Sprintf("%s %s (%s)", DvbscanLibraryName, DvbscanVersion, DvbscanGithubSite)
)
