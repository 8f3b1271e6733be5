package callback

import "hpresolve/internal/literal"

var (
	str     = []literal.Kind{literal.String}
	text    = []literal.Kind{literal.String, literal.Path}
	integer = []literal.Kind{literal.Integer}
	number  = []literal.Kind{literal.Float}
	flag    = []literal.Kind{literal.Boolean}
	level   = []literal.Kind{literal.Integer, literal.Boolean}
	freq    = []literal.Kind{literal.Integer, literal.String}
)

func monitorParams() []Param {
	return []Param{
		{Name: "monitor", Kinds: str},
		{Name: "mode", Kinds: str},
		{Name: "verbose", Kinds: level},
		{Name: "min_delta", Kinds: number},
	}
}

func checkpointParams() []Param {
	return []Param{
		{Name: "filepath", Kinds: text, Required: true},
		{Name: "monitor", Kinds: str},
		{Name: "mode", Kinds: str},
		{Name: "verbose", Kinds: level},
		{Name: "save_best_only", Kinds: flag},
		{Name: "save_weights_only", Kinds: flag},
		{Name: "save_freq", Kinds: freq},
		{Name: "period", Kinds: integer},
	}
}

// BuiltinContracts are the callback classes known without a contracts file.
func BuiltinContracts() []Contract {
	return []Contract{
		{ClassName: "ReduceLROnPlateau", Params: append(monitorParams(),
			Param{Name: "factor", Kinds: number},
			Param{Name: "patience", Kinds: integer},
			Param{Name: "cooldown", Kinds: integer},
			Param{Name: "min_lr", Kinds: number},
		)},
		{ClassName: "EarlyStopping", Params: append(monitorParams(),
			Param{Name: "patience", Kinds: integer},
			Param{Name: "baseline", Kinds: number},
			Param{Name: "restore_best_weights", Kinds: flag},
		)},
		{ClassName: "TensorBoard", Params: []Param{
			{Name: "log_dir", Kinds: text},
			{Name: "histogram_freq", Kinds: integer},
			{Name: "write_graph", Kinds: flag},
			{Name: "write_images", Kinds: flag},
			{Name: "update_freq", Kinds: freq},
			{Name: "profile_batch", Kinds: freq},
		}},
		{ClassName: "CSVLogger", Params: []Param{
			{Name: "filename", Kinds: text, Required: true},
			{Name: "separator", Kinds: str},
			{Name: "append", Kinds: flag},
		}},
		{ClassName: "ModelCheckpoint", Params: checkpointParams()},
		{ClassName: "ModelCheckPointClean", Params: checkpointParams(), AcceptsLogger: true},
		{ClassName: "TerminateOnNaN"},
		{ClassName: "DividerLine", AcceptsLogger: true},
		{ClassName: "TrainTimer", AcceptsLogger: true, Params: []Param{
			{Name: "verbose", Kinds: level},
			{Name: "max_minutes", Kinds: integer},
			{Name: "max_epochs", Kinds: integer},
		}},
		{ClassName: "MemoryConsumption", AcceptsLogger: true, Params: []Param{
			{Name: "max_gib", Kinds: number},
			{Name: "round_", Kinds: integer},
			{Name: "set_limit", Kinds: flag},
		}},
		{ClassName: "LearningCurve", AcceptsLogger: true, Params: []Param{
			{Name: "log_dir", Kinds: text},
			{Name: "out_dir", Kinds: text},
			{Name: "fname", Kinds: text},
			{Name: "csv_regex", Kinds: str},
		}},
	}
}

// Builtin returns a registry holding BuiltinContracts.
func Builtin() *Registry {
	r := NewRegistry()
	r.MustRegister(BuiltinContracts()...)
	return r
}
