// Package diagnostics describes degraded conditions in a form an operator can
// act on: what happened, why it probably happened and what to try.
package diagnostics

import "github.com/rs/zerolog"

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

type Diagnostic struct {
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

// Codes emitted by this module.
const (
	CodePanelFallback = "PANEL_FALLBACK"
	CodeCueInit       = "CUE_INIT"
)

func (d Diagnostic) level() zerolog.Level {
	switch d.Severity {
	case Err:
		return zerolog.ErrorLevel
	case Warn:
		return zerolog.WarnLevel
	}
	return zerolog.InfoLevel
}

// Emit logs d as one structured event at the level its severity maps to.
func Emit(log zerolog.Logger, d Diagnostic) {
	ev := log.WithLevel(d.level()).Str("code", d.Code)
	if d.Detail != "" {
		ev = ev.Str("detail", d.Detail)
	}
	if len(d.LikelyCauses) > 0 {
		ev = ev.Strs("likely_causes", d.LikelyCauses)
	}
	if len(d.SuggestedFixes) > 0 {
		ev = ev.Strs("suggested_fixes", d.SuggestedFixes)
	}
	if len(d.Evidence) > 0 {
		ev = ev.Fields(d.Evidence)
	}
	ev.Msg(d.Summary)
}
