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
	"html/template"
	"net/http"
	"sort"

	"open-tourney.dev/open-tourney/internal/config"
)

const (
	configEndpoint = "/configz"
	configPage     = `<!DOCTYPE html>
<html>
<head><title>Open Tourney Configuration</title></head>
<body>
<h1>Effective configuration</h1>
<table>
<tr><th>Setting</th><th>Value</th></tr>
{{ range . }}<tr><td>{{ .Key }}</td><td>{{ .Value }}</td></tr>
{{ end }}</table>
</body>
</html>
`
)

var configPageTemplate = template.Must(template.New("configz").Parse(configPage))

// configz renders the effective configuration as an HTML table, one row per
// top level key.
type configz struct {
	cfg config.View
}

type configRow struct {
	Key   string
	Value interface{}
}

func (cz *configz) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	// Both config.Read and config.ReadAndMerge views settle on viper
	// underneath, which exposes the full settings map.
	settings, ok := cz.cfg.(interface {
		AllSettings() map[string]interface{}
	})
	if !ok {
		http.Error(w, "Configuration does not expose its settings", http.StatusInternalServerError)
		return
	}

	all := settings.AllSettings()
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]configRow, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, configRow{Key: k, Value: all[k]})
	}
	if err := configPageTemplate.Execute(w, rows); err != nil {
		http.Error(w, fmt.Sprintf("cannot render the configuration page, %s", err), http.StatusInternalServerError)
	}
}
