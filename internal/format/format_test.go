package format_test

import (
	"strings"
	"testing"

	"hpresolve/internal/callback"
	"hpresolve/internal/diag"
	"hpresolve/internal/format"
	"hpresolve/internal/hparams"
	"hpresolve/internal/literal"
)

func TestASCII_BasicTable(t *testing.T) {
	tb := format.NewTable(format.ASCII)
	tb.Header("Task", "Model", "Batch")
	tb.Row("spleen", "UNet", 16)
	tb.Row("hippocampus", "UNet", 32)
	out := tb.String()

	// StyleLight upper-cases headers
	if !strings.Contains(out, "TASK") {
		t.Errorf("expected header 'TASK' in output:\n%s", out)
	}
	if !strings.Contains(out, "hippocampus") {
		t.Errorf("expected 'hippocampus' in output:\n%s", out)
	}
	if !strings.Contains(out, "32") {
		t.Errorf("expected '32' in output:\n%s", out)
	}
	// Should NOT contain markdown pipe-only syntax (no leading/trailing |)
	// ASCII uses box-drawing characters from StyleLight
	if strings.Contains(out, "───") == false {
		t.Errorf("expected box-drawing characters in ASCII output:\n%s", out)
	}
}

func TestMarkdown_BasicTable(t *testing.T) {
	tb := format.NewTable(format.Markdown)
	tb.Header("Nickname", "Class")
	tb.Row("lr_plateau", "ReduceLROnPlateau")
	tb.Row("early_stopping", "EarlyStopping")
	out := tb.String()

	// Markdown tables have | delimiters and --- separator
	if !strings.Contains(out, "| Nickname") {
		t.Errorf("expected markdown header with '| Nickname':\n%s", out)
	}
	if !strings.Contains(out, "---") {
		t.Errorf("expected markdown separator '---':\n%s", out)
	}
	if !strings.Contains(out, "lr_plateau") {
		t.Errorf("expected 'lr_plateau' in output:\n%s", out)
	}
}

func TestMarkdown_WithFooter(t *testing.T) {
	tb := format.NewTable(format.Markdown)
	tb.Header("Kind", "Count")
	tb.Row("UnexpectedKwarg", 100)
	tb.Row("TypeMismatch", 200)
	tb.Footer("TOTAL", 300)
	out := tb.String()

	if !strings.Contains(out, "TOTAL") {
		t.Errorf("expected footer 'TOTAL' in output:\n%s", out)
	}
	if !strings.Contains(out, "300") {
		t.Errorf("expected footer value '300' in output:\n%s", out)
	}
}

func TestColumns_RightAlign(t *testing.T) {
	tb := format.NewTable(format.ASCII)
	tb.Header("Name", "Value")
	tb.Row("n_epochs", 12345)
	tb.Columns(format.ColumnConfig{Number: 2, Align: format.AlignRight})
	out := tb.String()

	if !strings.Contains(out, "12345") {
		t.Errorf("expected '12345' in output:\n%s", out)
	}
}

func TestSameData_DualFormat(t *testing.T) {
	build := func(m format.Mode) string {
		tb := format.NewTable(m)
		tb.Header("A", "B")
		tb.Row("x", "y")
		return tb.String()
	}

	ascii := build(format.ASCII)
	md := build(format.Markdown)

	if ascii == md {
		t.Error("ASCII and Markdown output should differ")
	}
	// Both should contain the data
	for _, out := range []string{ascii, md} {
		if !strings.Contains(out, "x") || !strings.Contains(out, "y") {
			t.Errorf("expected data in output:\n%s", out)
		}
	}
}

// --- Domain tables ---

func TestParseMode(t *testing.T) {
	for in, want := range map[string]format.Mode{"": format.ASCII, "md": format.Markdown, "csv": format.CSV} {
		got, err := format.ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := format.ParseMode("html"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestTasks(t *testing.T) {
	cfg := &hparams.ResolvedConfig{Tasks: []hparams.TaskConfig{
		{Name: "spleen", Source: "tasks/spleen.yaml", Build: hparams.BuildSpec{ModelClassName: "UNet", Depth: 5}},
	}}
	out := format.Tasks(cfg, format.CSV)
	if !strings.Contains(out, "spleen,UNet,5") {
		t.Errorf("expected csv row for spleen:\n%s", out)
	}
}

func TestCallbacks(t *testing.T) {
	task := &hparams.TaskConfig{Callbacks: []hparams.InstantiationRequest{{
		Nickname:    "ckpt",
		ClassName:   "ModelCheckPointClean",
		NeedsLogger: true,
		Kwargs: hparams.Kwargs{
			"monitor": literal.NewString("val_dice"),
			"verbose": literal.NewInteger(1),
		},
	}}}
	out := format.Callbacks(task, format.Markdown)
	for _, want := range []string{"ckpt", "ModelCheckPointClean", "✓", "monitor=val_dice, verbose=1"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestViolations(t *testing.T) {
	l := diag.List{diag.New(diag.UnresolvedAnchor, "alias *p is used before anchor &p is defined").
		In("t1.yaml").FromAnchor("p").ForTask("t1")}
	out := format.Violations(l, format.ASCII)
	for _, want := range []string{"Parse", "Unresolved Anchor", "t1 (&p)", "t1.yaml", "TOTAL"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestContracts(t *testing.T) {
	out := format.Contracts(callback.Builtin().Contracts(), format.ASCII)
	for _, want := range []string{"CSVLogger", "filename*", "ReduceLROnPlateau"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

// --- Helper tests ---

func TestValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "null"},
		{literal.NewPercentage(0.01), "1pct"},
		{[]any{literal.NewInteger(0), literal.NewInteger(450)}, "[0, 450]"},
		{map[string]any{"b": literal.NewBool(true), "a": literal.NewPath("./x")}, "{a: ./x, b: true}"},
		{hparams.Kwargs{"lr": literal.NewFloat(0.5)}, "{lr: 0.5}"},
	}
	for _, tc := range tests {
		if got := format.Value(tc.in); got != tc.want {
			t.Errorf("Value(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello world", 8, "hello..."},
		{"ab", 3, "ab"},
		{"abcdef", 3, "abc"},
	}
	for _, tc := range tests {
		got := format.Truncate(tc.in, tc.maxLen)
		if got != tc.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tc.in, tc.maxLen, got, tc.want)
		}
	}
}

func TestBoolMark(t *testing.T) {
	if format.BoolMark(true) != "✓" {
		t.Error("BoolMark(true) should be ✓")
	}
	if format.BoolMark(false) != "✗" {
		t.Error("BoolMark(false) should be ✗")
	}
}
