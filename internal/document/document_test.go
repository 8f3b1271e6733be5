package document

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hpresolve/internal/diag"
	"hpresolve/internal/literal"
)

const sharedCallbacks = `
__CBPlateau: &plateau
  nickname: lr_plateau
  class_name: ReduceLROnPlateau
  kwargs:
    patience: 2
    factor: 0.90

fit:
  batch_size: 16
  bg_value: 1pct
  callbacks:
    - *plateau
    - *plateau
    - <<: *plateau
      nickname: lr_plateau_slow
`

func TestParse_AliasSitesShareAnchor(t *testing.T) {
	doc, err := Parse("train.yaml", []byte(sharedCallbacks))
	require.NoError(t, err)
	require.Empty(t, doc.Violations)

	fit, ok := doc.Section("fit")
	require.True(t, ok)
	cbs, ok := fit.Get("callbacks")
	require.True(t, ok)
	require.Equal(t, 3, cbs.Len())

	first, second, renamed := cbs.Items[0], cbs.Items[1], cbs.Items[2]
	assert.Same(t, first, second, "alias sites must share one node")
	require.NotNil(t, first.Anchor)
	assert.Equal(t, "plateau", first.Anchor.Name)
	assert.Equal(t, 3, first.Anchor.Uses, "two plain aliases and one merge key")
	assert.Equal(t, AnchorID("train.yaml", "plateau"), first.Origin().ID)

	assert.NotSame(t, first, renamed)
	assert.Nil(t, renamed.Anchor)
	require.NotNil(t, renamed.Base)
	assert.Equal(t, first.Anchor.ID, renamed.Origin().ID)

	nick, _ := renamed.Get("nickname")
	assert.Equal(t, literal.NewString("lr_plateau_slow"), nick.Scalar)
	cls, _ := renamed.Get("class_name")
	assert.Equal(t, literal.NewString("ReduceLROnPlateau"), cls.Scalar)
	assert.Equal(t, []string{"nickname", "class_name", "kwargs"}, renamed.Keys())
}

func TestParse_AnchorIDsAreDeterministic(t *testing.T) {
	a, err := Parse("train.yaml", []byte(sharedCallbacks))
	require.NoError(t, err)
	b, err := Parse("train.yaml", []byte(sharedCallbacks))
	require.NoError(t, err)
	require.Len(t, a.Anchors, 1)
	assert.Equal(t, a.Anchors[0].ID, b.Anchors[0].ID)

	other, err := Parse("other.yaml", []byte(sharedCallbacks))
	require.NoError(t, err)
	assert.NotEqual(t, a.Anchors[0].ID, other.Anchors[0].ID)
}

func TestParse_HolderKeysDropped(t *testing.T) {
	doc, err := Parse("train.yaml", []byte(sharedCallbacks))
	require.NoError(t, err)
	assert.Equal(t, []string{"fit"}, doc.Sections())
	assert.Equal(t, []string{"__CBPlateau"}, doc.Holders)
	_, ok := doc.Anchor("plateau")
	assert.True(t, ok)
}

func TestParse_Literals(t *testing.T) {
	doc, err := Parse("train.yaml", []byte(`
fit:
  lr: 5.0e-05
  bg_value: 1pct
  name: "16"
  path: ./model/@epoch_{epoch:02d}.h5
  off: false
  missing:
`))
	require.NoError(t, err)
	fit, _ := doc.Section("fit")

	tests := map[string]literal.TypedValue{
		"lr":       literal.NewFloat(5e-05),
		"bg_value": literal.NewPercentage(0.01),
		"name":     literal.NewString("16"),
		"path":     literal.NewPath("./model/@epoch_{epoch:02d}.h5"),
		"off":      literal.NewBool(false),
		"missing":  literal.NullValue(),
	}
	for key, want := range tests {
		t.Run(key, func(t *testing.T) {
			n, ok := fit.Get(key)
			require.True(t, ok)
			assert.True(t, literal.ApproxEqual(want, n.Scalar, 1e-12), "got %+v", n.Scalar)
			assert.Equal(t, want.Kind, n.Scalar.Kind)
		})
	}
}

func TestParse_MalformedLiteralCollected(t *testing.T) {
	doc, err := Parse("train.yaml", []byte("fit:\n  lr: 1.5x\n  depth: 3e\n"))
	require.NoError(t, err)
	require.Len(t, doc.Violations, 2)
	assert.Equal(t, diag.MalformedLiteral, doc.Violations[0].Kind)
	assert.Equal(t, "fit.lr", doc.Violations[0].Path)
	assert.Equal(t, "train.yaml:2", doc.Violations[0].Source)

	fit, _ := doc.Section("fit")
	lr, _ := fit.Get("lr")
	assert.Error(t, lr.Err)
	assert.Equal(t, literal.NewString("1.5x"), lr.Scalar)
}

func TestParse_PlainTokensUseLiteralGrammar(t *testing.T) {
	doc, err := Parse("train.yaml", []byte(`
fit:
  bg_value: 1pct
  batch_size: 12abc
  optimizer: Adam
  tagged: !!str 7pct
`))
	require.NoError(t, err)
	fit, _ := doc.Section("fit")

	bg, _ := fit.Get("bg_value")
	assert.Equal(t, literal.Percentage, bg.Scalar.Kind)
	assert.InDelta(t, 0.01, bg.Scalar.Float, 1e-12)

	opt, _ := fit.Get("optimizer")
	assert.Equal(t, literal.NewString("Adam"), opt.Scalar)

	tagged, _ := fit.Get("tagged")
	assert.Equal(t, literal.NewString("7pct"), tagged.Scalar)

	require.Len(t, doc.Violations, 1)
	assert.Equal(t, diag.MalformedLiteral, doc.Violations[0].Kind)
	assert.Equal(t, "fit.batch_size", doc.Violations[0].Path)
}

func TestParse_ForwardAliasIsUnresolved(t *testing.T) {
	_, err := Parse("train.yaml", []byte("fit:\n  callbacks: [*later]\n__CB: &later {class_name: X}\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, diag.ErrUnresolvedAnchor)
}

func TestParse_SelfReferenceIsUnresolved(t *testing.T) {
	doc, err := Parse("train.yaml", []byte("fit: &loop\n  inner: *loop\n"))
	require.NoError(t, err)
	assert.True(t, doc.Violations.Has(diag.UnresolvedAnchor))
}

func TestParse_DuplicateAnchor(t *testing.T) {
	doc, err := Parse("train.yaml", []byte(`
__a: &cb {class_name: EarlyStopping}
__b: &cb {class_name: TerminateOnNaN}
fit:
  callbacks: [*cb]
`))
	require.NoError(t, err)
	require.True(t, doc.Violations.Has(diag.DuplicateAnchor))
	assert.Equal(t, "cb", doc.Violations.OfKind(diag.DuplicateAnchor)[0].Anchor)
}

func TestParse_DuplicateKey(t *testing.T) {
	doc, err := Parse("train.yaml", []byte("fit:\n  batch_size: 16\n  batch_size: 32\n"))
	require.NoError(t, err)
	assert.True(t, doc.Violations.Has(diag.MalformedDocument))
}

func TestParse_SyntaxError(t *testing.T) {
	_, err := Parse("train.yaml", []byte("fit:\n  a: [1, 2\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, diag.ErrMalformedDocument)
}

func TestParse_EmptyDocument(t *testing.T) {
	doc, err := Parse("t2.yaml", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, doc.Root.Len())
}

func TestReadFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/cfg/t1.jsonc", []byte(`{
  // per-task override
  "fit": {"batch_size": 32, "metrics": ["sparse_categorical_accuracy",],},
}`), 0o644))

	doc, err := ReadFile(fsys, "/cfg/t1.jsonc")
	require.NoError(t, err)
	fit, ok := doc.Section("fit")
	require.True(t, ok)
	bs, _ := fit.Get("batch_size")
	assert.Equal(t, literal.NewInteger(32), bs.Scalar)

	_, err = ReadFile(fsys, "/cfg/missing.yaml")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist), "got %v", err)
}

func TestLookup(t *testing.T) {
	doc, err := Parse("train.yaml", []byte(`
build:
  depth: 4
  verbose: true
fit:
  batch_size: 16
  verbose: true
`))
	require.NoError(t, err)

	n, section, err := doc.Lookup("depth")
	require.NoError(t, err)
	assert.Equal(t, "build", section)
	assert.Equal(t, literal.NewInteger(4), n.Scalar)

	_, _, err = doc.Lookup("verbose")
	assert.ErrorContains(t, err, "ambiguous")

	_, _, err = doc.Lookup("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetValue(t *testing.T) {
	doc, err := Parse("train.yaml", []byte(`
__cb: &shared
  batch_size: 8
fit:
  <<: *shared
  shuffle: false
  n_epochs: 100
`))
	require.NoError(t, err)
	anchored, _ := doc.Anchor("shared")

	changed, err := doc.SetValue("fit", "n_epochs", "50", false)
	require.NoError(t, err)
	assert.False(t, changed, "set value must not replace without overwrite")

	changed, err = doc.SetValue("fit", "shuffle", "true", false)
	require.NoError(t, err)
	assert.True(t, changed, "false values are replaceable")

	changed, err = doc.SetPath("fit.batch_size", "32", true)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = doc.SetPath("fit.optimizer_kwargs.lr", "5.0e-05", false)
	require.NoError(t, err)
	assert.True(t, changed)

	fit, _ := doc.Section("fit")
	bs, _ := fit.Get("batch_size")
	assert.Equal(t, literal.NewInteger(32), bs.Scalar)
	orig, _ := anchored.Node.Get("batch_size")
	assert.Equal(t, literal.NewInteger(8), orig.Scalar, "anchored node must stay untouched")

	_, err = doc.SetPath("fit.batch_size.inner", "1", true)
	assert.Error(t, err)
	_, err = doc.SetPath("fit", "1", true)
	assert.Error(t, err)
	_, err = doc.SetPath("fit.lr", "1.5x", true)
	assert.ErrorIs(t, err, literal.ErrMalformed)
}

func TestAnchorFlag(t *testing.T) {
	doc, err := Parse("train.yaml", []byte(sharedCallbacks))
	require.NoError(t, err)
	a := doc.Anchors[0]
	assert.True(t, a.Valid())

	v := diag.New(diag.UnexpectedKwarg, "bogus").FromAnchor(a.Name)
	a.Flag(v)
	a.Flag(v)
	assert.Len(t, a.Problems(), 1)

	idx := IndexAnchors(doc)
	assert.Equal(t, []*Anchor{a}, idx.Flagged())
}
