package resolve

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/spf13/afero"

	"hpresolve/internal/diag"
	"hpresolve/internal/hparams"
	"hpresolve/internal/literal"
)

const scenarioDoc = `
__CB: &plateau
  class_name: ReduceLROnPlateau
  kwargs: {patience: 2}

tasks:
  task_names: [t1, t2]
  hparam_files: [t1.yaml, t2.yaml]

build:
  model_class_name: UNet
  complexity_factor: 2
  depth: 4

fit:
  loss: sparse_categorical_crossentropy
  optimizer: Adam
  batch_size: 16
  n_epochs: 100
  fg_batch_fraction: 0.5
  scaler: MinMaxScaler
  callbacks: [*plateau]
`

func quietOptions(fsys afero.Fs) Options {
	return Options{Fs: fsys, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func memFS(files map[string]string) afero.Fs {
	fsys := afero.NewMemMapFs()
	for name, text := range files {
		gomega.Expect(afero.WriteFile(fsys, name, []byte(text), 0o644)).To(gomega.Succeed())
	}
	return fsys
}

func replaceOnce(s, old, repl string) string {
	gomega.Expect(s).To(gomega.ContainSubstring(old))
	return strings.Replace(s, old, repl, 1)
}

func violationKinds(err error) []diag.Kind {
	l, ok := Violations(err)
	gomega.Expect(ok).To(gomega.BeTrue(), "expected a violation list, got %v", err)
	kinds := make([]diag.Kind, len(l))
	for i, v := range l {
		kinds[i] = v.Kind
	}
	return kinds
}

var _ = ginkgo.Describe("Resolve", func() {
	var ctx context.Context

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
	})

	ginkgo.Context("with the bundled training document", func() {
		var fsys afero.Fs

		ginkgo.BeforeEach(func() {
			fsys = afero.NewReadOnlyFs(afero.NewOsFs())
		})

		ginkgo.It("resolves every task with task overrides taking precedence", func() {
			cfg, err := Resolve(ctx, "testdata/train_hparams.yaml", quietOptions(fsys))
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(cfg.Names()).To(gomega.Equal([]string{"hippocampus", "spleen"}))

			hippo, _ := cfg.Task("hippocampus")
			gomega.Expect(hippo.Fit.BatchSize).To(gomega.Equal(32))
			gomega.Expect(hippo.Fit.FGBatchFraction).To(gomega.Equal(0.75))
			gomega.Expect(hippo.Fit.Callbacks).To(gomega.HaveLen(2))
			gomega.Expect(hippo.Callbacks[1].ClassName).To(gomega.Equal("TerminateOnNaN"))

			spleen, _ := cfg.Task("spleen")
			gomega.Expect(spleen.Fit.BatchSize).To(gomega.Equal(16))
			gomega.Expect(spleen.Build.Depth).To(gomega.Equal(5))
			gomega.Expect(spleen.Fit.Callbacks).To(gomega.HaveLen(5))
			gomega.Expect(spleen.Fit.BGValue.Kind).To(gomega.Equal(literal.Percentage))
			gomega.Expect(spleen.Fit.SparseMetrics()).To(gomega.Equal([]string{"sparse_categorical_accuracy"}))

			ckpt := spleen.Callbacks[4]
			gomega.Expect(ckpt.NeedsLogger).To(gomega.BeTrue())
			gomega.Expect(ckpt.Kwargs["filepath"]).To(gomega.Equal(
				literal.NewPath("./model/@epoch_{epoch:02d}_val_dice_{val_dice:.5f}.h5")))
		})

		ginkgo.It("is idempotent", func() {
			a, err := Resolve(ctx, "testdata/train_hparams.yaml", quietOptions(fsys))
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			b, err := Resolve(ctx, "testdata/train_hparams.yaml", quietOptions(fsys))
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(a).To(gomega.Equal(b))
		})

		ginkgo.It("applies command-line overrides before merging", func() {
			opts := quietOptions(fsys)
			opts.Overrides = []string{"fit.n_epochs=50", "fit.batch_size = 8"}
			cfg, err := Resolve(ctx, "testdata/train_hparams.yaml", opts)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(cfg.Tasks[0].Fit.NEpochs).To(gomega.Equal(50))
			gomega.Expect(cfg.Tasks[0].Fit.BatchSize).To(gomega.Equal(32), "task override still wins")
			gomega.Expect(cfg.Tasks[1].Fit.BatchSize).To(gomega.Equal(8))
		})
	})

	ginkgo.Context("with in-memory documents", func() {
		ginkgo.It("keeps the global value for a task without a fit section", func() {
			fsys := memFS(map[string]string{
				"/cfg/train.yaml": scenarioDoc,
				"/cfg/t1.yaml":    "fit:\n  batch_size: 32\n",
				"/cfg/t2.yaml":    "build:\n  depth: 3\n",
			})
			cfg, err := Resolve(ctx, "/cfg/train.yaml", quietOptions(fsys))
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(cfg.Tasks[0].Fit.BatchSize).To(gomega.Equal(32))
			gomega.Expect(cfg.Tasks[1].Fit.BatchSize).To(gomega.Equal(16))
		})

		ginkgo.It("empties the callback list on an explicit empty override", func() {
			fsys := memFS(map[string]string{
				"/cfg/train.yaml": scenarioDoc,
				"/cfg/t1.yaml":    "fit:\n  callbacks: []\n",
				"/cfg/t2.yaml":    "",
			})
			cfg, err := Resolve(ctx, "/cfg/train.yaml", quietOptions(fsys))
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(cfg.Tasks[0].Fit.Callbacks).To(gomega.BeEmpty())
			gomega.Expect(cfg.Tasks[1].Fit.Callbacks).To(gomega.HaveLen(1))
		})

		ginkgo.It("keeps the global list under the replace-nonempty policy", func() {
			fsys := memFS(map[string]string{
				"/cfg/train.yaml": scenarioDoc,
				"/cfg/t1.yaml":    "fit:\n  callbacks: []\n",
				"/cfg/t2.yaml":    "",
			})
			opts := quietOptions(fsys)
			opts.Policy = hparams.ReplaceNonEmpty
			cfg, err := Resolve(ctx, "/cfg/train.yaml", opts)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(cfg.Tasks[0].Fit.Callbacks).To(gomega.HaveLen(1))
		})

		ginkgo.It("fails with TaskCountMismatch when names and files differ", func() {
			fsys := memFS(map[string]string{
				"/cfg/train.yaml": replaceOnce(scenarioDoc, "[t1.yaml, t2.yaml]", "[t1.yaml]"),
			})

			cfg, err := Resolve(ctx, "/cfg/train.yaml", quietOptions(fsys))
			gomega.Expect(cfg).To(gomega.BeNil())
			gomega.Expect(errors.Is(err, diag.ErrTaskCountMismatch)).To(gomega.BeTrue())
		})

		ginkgo.It("names the bogus kwarg of a callback", func() {
			fsys := memFS(map[string]string{
				"/cfg/train.yaml": replaceOnce(scenarioDoc, "{patience: 2}", "{patience: 2, bogus_key: 1}"),
				"/cfg/t1.yaml":    "",
				"/cfg/t2.yaml":    "",
			})
			_, err := Resolve(ctx, "/cfg/train.yaml", quietOptions(fsys))
			gomega.Expect(errors.Is(err, diag.ErrUnexpectedKwarg)).To(gomega.BeTrue())
			l, _ := Violations(err)
			gomega.Expect(l).To(gomega.HaveLen(2), "one per task")
			for _, v := range l {
				gomega.Expect(v.Message).To(gomega.ContainSubstring("bogus_key"))
				gomega.Expect(v.Anchor).To(gomega.Equal("plateau"))
			}
		})

		ginkgo.It("rejects fg_batch_fraction outside [0,1]", func() {
			fsys := memFS(map[string]string{
				"/cfg/train.yaml": scenarioDoc,
				"/cfg/t1.yaml":    "fit:\n  fg_batch_fraction: 1.5\n",
				"/cfg/t2.yaml":    "",
			})
			_, err := Resolve(ctx, "/cfg/train.yaml", quietOptions(fsys))
			gomega.Expect(violationKinds(err)).To(gomega.Equal([]diag.Kind{diag.OutOfRangeValue}))
			l, _ := Violations(err)
			gomega.Expect(l[0].Task).To(gomega.Equal("t1"))
			gomega.Expect(l[0].Path).To(gomega.Equal("fit.fg_batch_fraction"))
		})

		ginkgo.It("reports an alias used before its anchor and accepts a renamed reuse", func() {
			fsys := memFS(map[string]string{
				"/cfg/train.yaml": scenarioDoc,
				"/cfg/t1.yaml":    "fit:\n  callbacks: [*p, *p]\n__x: &p {class_name: TerminateOnNaN}\n",
				"/cfg/t2.yaml": "__x: &p {class_name: TerminateOnNaN}\n" +
					"fit:\n  callbacks: [*p, {<<: *p, nickname: nan_guard}]\n",
			})
			_, err := Resolve(ctx, "/cfg/train.yaml", quietOptions(fsys))
			l, ok := Violations(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(l.OfKind(diag.UnresolvedAnchor)).To(gomega.HaveLen(1), "t1 aliases before defining")
			gomega.Expect(l.OfKind(diag.UnresolvedAnchor)[0].Source).To(gomega.Equal("/cfg/t1.yaml"))
			gomega.Expect(l.Has(diag.DuplicateNickname)).To(gomega.BeFalse(), "t2 renames its second use")
		})

		ginkgo.It("reports DuplicateNickname for an anchor reused verbatim", func() {
			fsys := memFS(map[string]string{
				"/cfg/train.yaml": scenarioDoc,
				"/cfg/t1.yaml":    "__x: &p {class_name: TerminateOnNaN}\nfit:\n  callbacks: [*p, *p]\n",
				"/cfg/t2.yaml":    "",
			})
			_, err := Resolve(ctx, "/cfg/train.yaml", quietOptions(fsys))
			gomega.Expect(violationKinds(err)).To(gomega.Equal([]diag.Kind{diag.DuplicateNickname}))
			l, _ := Violations(err)
			gomega.Expect(l[0].Anchor).To(gomega.Equal("p"))
			gomega.Expect(l[0].Task).To(gomega.Equal("t1"))
		})

		ginkgo.It("collects problems from every task instead of stopping at the first", func() {
			fsys := memFS(map[string]string{
				"/cfg/train.yaml": scenarioDoc,
				"/cfg/t1.yaml":    "fit:\n  scaler: LogScaler\n  callbacks: [{class_name: LRFinder}]\n",
			})
			_, err := Resolve(ctx, "/cfg/train.yaml", quietOptions(fsys))
			gomega.Expect(violationKinds(err)).To(gomega.ConsistOf(
				diag.UnknownCallbackClass,
				diag.InvalidEnumValue,
				diag.TaskFileNotFound,
			))
		})

		ginkgo.It("resolves a single-task document when an implicit task is configured", func() {
			fsys := memFS(map[string]string{
				"/cfg/train.yaml": replaceOnce(scenarioDoc, "tasks:\n  task_names: [t1, t2]\n  hparam_files: [t1.yaml, t2.yaml]\n", ""),
			})
			_, err := Resolve(ctx, "/cfg/train.yaml", quietOptions(fsys))
			gomega.Expect(violationKinds(err)).To(gomega.Equal([]diag.Kind{diag.MissingRequiredField}))

			opts := quietOptions(fsys)
			opts.ImplicitTask = "main"
			cfg, err := Resolve(ctx, "/cfg/train.yaml", opts)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(cfg.Names()).To(gomega.Equal([]string{"main"}))
		})

		ginkgo.It("returns an operational error for a missing document", func() {
			_, err := Resolve(ctx, "/cfg/none.yaml", quietOptions(afero.NewMemMapFs()))
			gomega.Expect(err).To(gomega.HaveOccurred())
			_, ok := Violations(err)
			gomega.Expect(ok).To(gomega.BeFalse())
			gomega.Expect(errors.Is(err, os.ErrNotExist)).To(gomega.BeTrue())
		})
	})
})
