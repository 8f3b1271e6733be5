package format

import (
	"strconv"

	"hpresolve/internal/callback"
	"hpresolve/internal/diag"
	"hpresolve/internal/display"
	"hpresolve/internal/hparams"
)

const kwargsWidth = 60

// Tasks summarizes every resolved task, one row each.
func Tasks(cfg *hparams.ResolvedConfig, m Mode) string {
	tb := NewTable(m)
	tb.Header("Task", "Model", "Depth", "Batch", "Epochs", "Scaler", "Callbacks", "Source")
	tb.Columns(
		ColumnConfig{Number: 3, Align: AlignRight},
		ColumnConfig{Number: 4, Align: AlignRight},
		ColumnConfig{Number: 5, Align: AlignRight},
		ColumnConfig{Number: 7, Align: AlignRight},
	)
	for _, t := range cfg.Tasks {
		tb.Row(t.Name, t.Build.ModelClassName, t.Build.Depth, t.Fit.BatchSize, t.Fit.NEpochs,
			t.Fit.Scaler, len(t.Callbacks), t.Source)
	}
	return tb.String()
}

// Callbacks lists the instantiation requests of one task in order.
func Callbacks(t *hparams.TaskConfig, m Mode) string {
	tb := NewTable(m)
	tb.Header("#", "Nickname", "Class", "Logger", "Start", "Kwargs")
	tb.Columns(
		ColumnConfig{Number: 1, Align: AlignRight},
		ColumnConfig{Number: 4, Align: AlignCenter},
		ColumnConfig{Number: 6, MaxWidth: kwargsWidth},
	)
	for i, r := range t.Callbacks {
		tb.Row(i, r.Nickname, r.ClassName, BoolMark(r.NeedsLogger), r.StartFrom, Kwargs(r.Kwargs))
	}
	return tb.String()
}

// Violations renders a violation list with its step, kind and location.
func Violations(l diag.List, m Mode) string {
	tb := NewTable(m)
	tb.Header("#", "Step", "Kind", "Where", "Source", "Message")
	tb.Columns(
		ColumnConfig{Number: 1, Align: AlignRight},
		ColumnConfig{Number: 6, MaxWidth: kwargsWidth},
	)
	for i, v := range l {
		tb.Row(i+1, display.StageOf(v.Kind), display.Violation(v.Kind), display.Location(v), v.Source, v.Message)
	}
	tb.Footer("", "", "TOTAL", strconv.Itoa(len(l)), "", "")
	return tb.String()
}

// Contracts lists the registered callback classes and their parameters.
// Required parameters carry a trailing "*".
func Contracts(cs []*callback.Contract, m Mode) string {
	tb := NewTable(m)
	tb.Header("Class", "Parameter", "Kinds", "Logger")
	tb.Columns(ColumnConfig{Number: 4, Align: AlignCenter})
	for _, c := range cs {
		if len(c.Params) == 0 {
			tb.Row(c.ClassName, "", "", BoolMark(c.AcceptsLogger))
			continue
		}
		for i, p := range c.Params {
			class, logger := "", ""
			if i == 0 {
				class, logger = c.ClassName, BoolMark(c.AcceptsLogger)
			}
			name := p.Name
			if p.Required {
				name += "*"
			}
			tb.Row(class, name, display.LiteralKinds(p.Kinds), logger)
		}
	}
	return tb.String()
}
