package setup

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"modelenv/internal/config"
	"modelenv/internal/execx"
	"modelenv/internal/fetch"
	"modelenv/internal/pip"
	"modelenv/internal/store"
	"modelenv/pkg/types"
)

// fakeRunner records argv strings and fails any invocation whose argv
// contains failOn.
type fakeRunner struct {
	calls  []string
	failOn string
}

func (f *fakeRunner) Run(ctx context.Context, c execx.Cmd) error {
	argv := strings.Join(c.Args, " ")
	f.calls = append(f.calls, argv)
	if f.failOn != "" && strings.Contains(argv, f.failOn) {
		return errors.New("exit status 1")
	}
	return nil
}

func testDeps(t *testing.T, runner execx.Runner) Deps {
	t.Helper()
	interp := "sh"
	if _, err := execx.LookPath(interp); err != nil {
		t.Skip("no sh on PATH")
	}
	p, err := pip.New(interp, runner, zerolog.Nop())
	if err != nil {
		t.Fatalf("pip: %v", err)
	}
	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	return Deps{
		Pip:        p,
		Downloader: fetch.New(nil, zerolog.Nop()),
		Store:      st,
		Log:        zerolog.Nop(),
	}
}

func modelServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("archive:" + r.URL.Path))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeManifest(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "requirements.txt")
	if err := os.WriteFile(p, []byte("pandas\nspacy\n"), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return p
}

func TestPipelineRunsStepsInOrder(t *testing.T) {
	srv := modelServer(t)
	f := &fakeRunner{}
	d := testDeps(t, f)

	cfg := config.Config{
		Requirements: writeManifest(t),
		LinkTool:     "spacy",
		Models: []config.Model{
			{Name: "en_core_web_sm", Version: "3.7.1", URL: srv.URL + "/en_core_web_sm-3.7.1.tar.gz", Alias: "en"},
		},
	}

	if err := New(cfg, d).Run(context.Background()); err != nil {
		t.Fatalf("pipeline: %v", err)
	}

	want := []string{
		"-m pip install --upgrade pip",
		"-m pip install -r " + cfg.Requirements,
		"-m pip install " + ArchivePath(d.Store, cfg.Models[0]),
		"-m spacy link en_core_web_sm en",
	}
	if len(f.calls) != len(want) {
		t.Fatalf("call count %d, want %d: %v", len(f.calls), len(want), f.calls)
	}
	for i, w := range want {
		if f.calls[i] != w {
			t.Fatalf("call %d: got %q, want %q", i, f.calls[i], w)
		}
	}

	// store reflects the install and the alias
	m, err := d.Store.Get("en_core_web_sm")
	if err != nil {
		t.Fatalf("store entry: %v", err)
	}
	if m.Version != "3.7.1" || m.ReceiptID == "" {
		t.Fatalf("unexpected entry: %+v", m)
	}
	if pkg, err := d.Store.Resolve("en"); err != nil || pkg != "en_core_web_sm" {
		t.Fatalf("alias: %q %v", pkg, err)
	}
}

func TestPipelineAbortsOnFirstError(t *testing.T) {
	srv := modelServer(t)
	f := &fakeRunner{failOn: "--upgrade pip"}
	d := testDeps(t, f)

	cfg := config.Config{
		Requirements: writeManifest(t),
		LinkTool:     "spacy",
		Models:       []config.Model{{Name: "m", Version: "1.0", URL: srv.URL + "/m-1.0.tar.gz"}},
	}

	err := New(cfg, d).Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "upgrade-pip") {
		t.Fatalf("expected upgrade-pip failure, got %v", err)
	}
	if len(f.calls) != 1 {
		t.Fatalf("later steps ran after failure: %v", f.calls)
	}
	// nothing installed, nothing recorded
	if models, _ := d.Store.List(); len(models) != 0 {
		t.Fatalf("store not empty after aborted run: %+v", models)
	}
}

func TestLinkAliasesToleratesExternalFailure(t *testing.T) {
	f := &fakeRunner{failOn: "spacy link"}
	d := testDeps(t, f)

	models := []config.Model{{Name: "en_core_web_sm", Alias: "en"}}
	if err := LinkAliases(context.Background(), "spacy", models, d); err != nil {
		t.Fatalf("link aliases: %v", err)
	}
	// local registration still happened
	if pkg, err := d.Store.Resolve("en"); err != nil || pkg != "en_core_web_sm" {
		t.Fatalf("local alias missing: %q %v", pkg, err)
	}
}

func TestLinkAliasesSkipsModelsWithoutAlias(t *testing.T) {
	f := &fakeRunner{}
	d := testDeps(t, f)

	models := []config.Model{{Name: "m"}}
	if err := LinkAliases(context.Background(), "spacy", models, d); err != nil {
		t.Fatalf("link aliases: %v", err)
	}
	if len(f.calls) != 0 {
		t.Fatalf("link ran for aliasless model: %v", f.calls)
	}
	if aliases, _ := d.Store.Aliases(); len(aliases) != 0 {
		t.Fatalf("unexpected aliases: %+v", aliases)
	}
}

func TestDownloadModelsPlacesArchives(t *testing.T) {
	srv := modelServer(t)
	d := testDeps(t, &fakeRunner{})

	models := []config.Model{
		{Name: "a", URL: srv.URL + "/a-1.0.tar.gz"},
		{Name: "b", URL: srv.URL + "/b-2.0.tar.gz"},
	}
	if err := DownloadModels(context.Background(), models, d); err != nil {
		t.Fatalf("download: %v", err)
	}
	for _, m := range models {
		if _, err := os.Stat(ArchivePath(d.Store, m)); err != nil {
			t.Fatalf("archive missing for %s: %v", m.Name, err)
		}
	}
}

func TestVerifyReportsProblems(t *testing.T) {
	f := &fakeRunner{failOn: "pip show"}
	d := testDeps(t, f)

	cfg := config.Config{
		Requirements: filepath.Join(t.TempDir(), "missing.txt"),
		Models:       []config.Model{{Name: "m", Alias: "a"}},
	}
	problems, err := Verify(context.Background(), cfg, d)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	// manifest missing, package not installed, not in registry, alias missing
	if len(problems) != 4 {
		t.Fatalf("expected 4 problems, got %d: %v", len(problems), problems)
	}
}

func TestVerifyFlagsMissingManifestDependency(t *testing.T) {
	f := &fakeRunner{failOn: "show -q ghostlib"}
	d := testDeps(t, f)

	manifest := filepath.Join(t.TempDir(), "requirements.txt")
	content := "# pinned deps\npandas>=1.0\nghostlib==1.0\n-r extra.txt\n"
	if err := os.WriteFile(manifest, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	cfg := config.Config{Requirements: manifest}
	problems, err := Verify(context.Background(), cfg, d)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if len(problems) != 1 || !strings.Contains(problems[0], "ghostlib") {
		t.Fatalf("expected one ghostlib problem, got %v", problems)
	}
	// both real entries were checked, the option line was not
	var shows []string
	for _, c := range f.calls {
		if strings.Contains(c, "pip show") {
			shows = append(shows, c)
		}
	}
	want := []string{"-m pip show -q pandas", "-m pip show -q ghostlib"}
	if len(shows) != len(want) || shows[0] != want[0] || shows[1] != want[1] {
		t.Fatalf("show calls %v, want %v", shows, want)
	}
}

func TestManifestEntries(t *testing.T) {
	manifest := filepath.Join(t.TempDir(), "requirements.txt")
	content := strings.Join([]string{
		"# comment",
		"",
		"pandas>=1.0",
		"spacy [lookups] ==3.7.1",
		"requests ; python_version > \"3.8\"",
		"torch @ https://example.com/torch.whl",
		"--index-url https://pypi.example.com/simple",
		"-e ./local-pkg",
		"numpy  # inline comment",
	}, "\n")
	if err := os.WriteFile(manifest, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	got, err := manifestEntries(manifest)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []string{"pandas", "spacy", "requests", "torch", "numpy"}
	if len(got) != len(want) {
		t.Fatalf("entries %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entries %v, want %v", got, want)
		}
	}
}

func TestVerifyHealthy(t *testing.T) {
	f := &fakeRunner{}
	d := testDeps(t, f)

	manifest := writeManifest(t)
	if err := d.Store.Add(types.InstalledModel{Name: "m", Version: "1.0"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := d.Store.SetAlias("a", "m"); err != nil {
		t.Fatalf("alias: %v", err)
	}

	cfg := config.Config{
		Requirements: manifest,
		Models:       []config.Model{{Name: "m", Alias: "a"}},
	}
	problems, err := Verify(context.Background(), cfg, d)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if len(problems) != 0 {
		t.Fatalf("unexpected problems: %v", problems)
	}
}
