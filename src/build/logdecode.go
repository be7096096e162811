package build

import (
	"encoding/json"
	"strings"

	"github.com/sofmeright/xcforge/src/process"
)

// LogLine is one structured line of build-engine output. All fields are
// optional; the engine interleaves these with plain text.
type LogLine struct {
	Kind    string          `json:"kind,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   json.RawMessage `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    string          `json:"data,omitempty"`
}

// ignoredKinds are telemetry events that never carry failure text.
var ignoredKinds = map[string]bool{
	"didUpdateProgress": true,
}

// DecodeBuildLog extracts human-readable error text from engine output.
// Plain-text lines and lines that are not JSON objects are skipped, as are
// lines whose kind is telemetry. Each remaining line contributes its message,
// or its data when the message is empty. Returns false when nothing
// contributes.
func DecodeBuildLog(res *process.Result) (string, bool) {
	if res == nil {
		return "", false
	}
	var out []string
	for _, stream := range []string{res.Stdout, res.Stderr} {
		out = append(out, decodeLines(stream)...)
	}
	if len(out) == 0 {
		return "", false
	}
	return strings.Join(out, "\n"), true
}

func decodeLines(stream string) []string {
	var out []string
	for _, line := range strings.Split(stream, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var ll LogLine
		if err := json.Unmarshal([]byte(line), &ll); err != nil {
			continue
		}
		if ignoredKinds[ll.Kind] {
			continue
		}
		text := ll.Message
		if text == "" {
			text = ll.Data
		}
		if text != "" {
			out = append(out, text)
		}
	}
	return out
}
