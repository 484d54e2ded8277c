// Copyright 2024 The Open Tourney Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package telemetry

import (
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"go.opencensus.io/zpages"
	"open-tourney.dev/open-tourney/internal/config"
)

const (
	zpagesPrefix = "/debug"
	helpEndpoint = "/help"
	helpPage     = `<!DOCTYPE html>
<html>
<head><title>Open Tourney Scheduler Help</title></head>
<body>
<h1>Debug endpoints</h1>
<ul>
<li><a href="/debug/tracez">/debug/tracez</a> span traces of recent runs</li>
<li><a href="/configz">/configz</a> the effective configuration</li>
<li><a href="/healthz">/healthz</a> liveness probe</li>
<li><a href="/metrics">/metrics</a> prometheus scrape target</li>
</ul>
</body>
</html>
`
)

// bindDebugPages registers the human-facing debug endpoints: opencensus
// zpages under /debug, the /configz dump of the effective configuration and
// a /help index. All of them ride the telemetry.zpages.enable flag.
func bindDebugPages(mux *http.ServeMux, cfg config.View) {
	if !cfg.GetBool("telemetry.zpages.enable") {
		logger.Info("Debug pages: Disabled")
		return
	}

	zpages.Handle(mux, zpagesPrefix)
	mux.Handle(configEndpoint, &configz{cfg: cfg})
	mux.HandleFunc(helpEndpoint, serveHelp)

	logger.WithFields(logrus.Fields{
		"endpoints": []string{zpagesPrefix, configEndpoint, helpEndpoint},
	}).Info("Debug pages: ENABLED")
}

func serveHelp(w http.ResponseWriter, req *http.Request) {
	fmt.Fprint(w, helpPage)
}
