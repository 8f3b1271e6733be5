// Package hparams holds the resolved hyperparameter model and the loader
// that builds one TaskConfig per declared task by merging the task's
// override file over the global build and fit sections.
package hparams

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"hpresolve/internal/literal"
)

// Kwargs are constructor arguments. Leaves are literal.TypedValue; nested
// values are []any and map[string]any.
type Kwargs map[string]any

// BuildSpec describes the model to build.
type BuildSpec struct {
	ModelClassName   string `yaml:"model_class_name" validate:"required"`
	ComplexityFactor int    `yaml:"complexity_factor" validate:"gt=0"`
	L1Reg            bool   `yaml:"l1_reg"`
	L2Reg            bool   `yaml:"l2_reg"`
	Depth            int    `yaml:"depth" validate:"gte=1"`
	SharedDecoder    bool   `yaml:"shared_decoder"`

	Extra map[string]any `yaml:",inline"`
}

// AugmenterSpec describes one data augmenter.
type AugmenterSpec struct {
	ClsName string `yaml:"cls_name" validate:"required"`
	Kwargs  Kwargs `yaml:"kwargs,omitempty"`
}

// CallbackSpec is one callback descriptor of fit.callbacks.
type CallbackSpec struct {
	Nickname   string `yaml:"nickname"`
	ClassName  string `yaml:"class_name" validate:"required"`
	Kwargs     Kwargs `yaml:"kwargs,omitempty"`
	PassLogger bool   `yaml:"pass_logger,omitempty"`
	StartFrom  int    `yaml:"start_from,omitempty" validate:"gte=0"`

	// AnchorID identifies the anchor the descriptor came from; zero when it
	// was written inline. Overlay is set when the descriptor was built from
	// a merge key rather than used as a plain alias.
	AnchorID   uuid.UUID `yaml:"-"`
	AnchorName string    `yaml:"-"`
	Overlay    bool      `yaml:"-"`
	Source     string    `yaml:"-"`
}

// Label names the callback in messages.
func (c CallbackSpec) Label() string {
	if c.Nickname != "" {
		return c.Nickname
	}
	return c.ClassName
}

// Scaler identifiers accepted by fit.scaler.
var Scalers = []string{
	"MinMaxScaler",
	"StandardScaler",
	"MaxAbsScaler",
	"RobustScaler",
	"QuantileTransformer",
	"Null",
}

// FitSpec controls training.
type FitSpec struct {
	Views         int                `yaml:"views" validate:"gte=0"`
	NoiseSD       float64            `yaml:"noise_sd" validate:"gte=0"`
	RealSpaceSpan literal.TypedValue `yaml:"real_space_span"`
	IntrpStyle    string             `yaml:"intrp_style"`
	ClassWeights  bool               `yaml:"class_weights"`
	Sparse        bool               `yaml:"sparse"`

	Augmenters []AugmenterSpec `yaml:"augmenters" validate:"dive"`

	Loss            string   `yaml:"loss" validate:"required"`
	Metrics         []string `yaml:"metrics"`
	Optimizer       string   `yaml:"optimizer" validate:"required"`
	OptimizerKwargs Kwargs   `yaml:"optimizer_kwargs,omitempty"`

	BatchSize         int  `yaml:"batch_size" validate:"gt=0"`
	NEpochs           int  `yaml:"n_epochs" validate:"gt=0"`
	Verbose           bool `yaml:"verbose"`
	ShuffleBatchOrder bool `yaml:"shuffle_batch_order"`

	FGBatchFraction float64            `yaml:"fg_batch_fraction" validate:"gte=0,lte=1"`
	BGValue         literal.TypedValue `yaml:"bg_value"`
	BGClass         int                `yaml:"bg_class" validate:"gte=0"`
	Scaler          string             `yaml:"scaler" validate:"oneof=MinMaxScaler StandardScaler MaxAbsScaler RobustScaler QuantileTransformer Null"`

	Callbacks []CallbackSpec `yaml:"callbacks" validate:"dive"`

	Extra map[string]any `yaml:",inline"`
}

// SparseMetrics returns the metric identifiers the trainer compiles: with
// sparse labels each gets a sparse_ prefix.
func (f FitSpec) SparseMetrics() []string {
	if !f.Sparse {
		return append([]string(nil), f.Metrics...)
	}
	out := make([]string, len(f.Metrics))
	for i, m := range f.Metrics {
		if strings.HasPrefix(m, "sparse_") {
			out[i] = m
		} else {
			out[i] = "sparse_" + m
		}
	}
	return out
}

// InstantiationRequest asks the training runtime to construct one callback.
type InstantiationRequest struct {
	Nickname    string `yaml:"nickname"`
	ClassName   string `yaml:"class_name"`
	Kwargs      Kwargs `yaml:"kwargs,omitempty"`
	NeedsLogger bool   `yaml:"needs_logger"`
	StartFrom   int    `yaml:"start_from,omitempty"`
}

// TaskConfig is the resolved configuration of one task.
type TaskConfig struct {
	Name      string                 `yaml:"name"`
	Source    string                 `yaml:"source,omitempty"`
	Build     BuildSpec              `yaml:"build"`
	Fit       FitSpec                `yaml:"fit"`
	Callbacks []InstantiationRequest `yaml:"instantiate"`
}

// Get finds key among the task's build and fit fields, by document name.
// A key present in both is an error.
func (t *TaskConfig) Get(key string) (any, error) {
	build, err := renderMap(t.Build)
	if err != nil {
		return nil, err
	}
	fit, err := renderMap(t.Fit)
	if err != nil {
		return nil, err
	}
	bv, inBuild := build[key]
	fv, inFit := fit[key]
	switch {
	case inBuild && inFit:
		return nil, fmt.Errorf("key %q is ambiguous: found in build and fit", key)
	case inBuild:
		return bv, nil
	case inFit:
		return fv, nil
	}
	return nil, fmt.Errorf("key %q not found in task %s", key, t.Name)
}

// ResolvedConfig is the output of a resolution run.
type ResolvedConfig struct {
	Tasks []TaskConfig `yaml:"tasks"`
}

// Task returns the task called name.
func (c *ResolvedConfig) Task(name string) (*TaskConfig, bool) {
	for i := range c.Tasks {
		if c.Tasks[i].Name == name {
			return &c.Tasks[i], true
		}
	}
	return nil, false
}

// Names returns the task names in order.
func (c *ResolvedConfig) Names() []string {
	names := make([]string, len(c.Tasks))
	for i, t := range c.Tasks {
		names[i] = t.Name
	}
	return names
}
