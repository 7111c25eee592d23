package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"dexgraph/internal/config"
	"dexgraph/internal/dex/dextest"
	"dexgraph/internal/logging"
)

// fixtures writes a framework image with Object and Activity and an app
// image whose Main.onCreate calls the inherited setContentView.
func fixtures(t *testing.T) (fw, app string) {
	t.Helper()
	dir := t.TempDir()

	b := dextest.New()
	b.Class("Ljava/lang/Object;", "", dextest.AccPublic)
	b.Class("Landroid/app/Activity;", "Ljava/lang/Object;", dextest.AccPublic).
		Method("setContentView", "V", []string{"I"}, dextest.AccPublic).
		Code(2, 2, 0, 0x000e)
	fw = filepath.Join(dir, "framework.dex")
	if err := os.WriteFile(fw, b.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	b = dextest.New()
	setContent := b.Method("Lapp/Main;", "setContentView", "V", "I")
	b.Class("Lapp/Main;", "Landroid/app/Activity;", dextest.AccPublic).
		Method("onCreate", "V", []string{"Landroid/os/Bundle;"}, dextest.AccPublic).
		Code(3, 2, 2,
			0x7012,                             // const/4 v0, #7
			0x206e, uint16(setContent), 0x0001, // invoke-virtual {v1, v0}
			0x000e,
		)
	app = filepath.Join(dir, "app.dex")
	if err := os.WriteFile(app, b.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return fw, app
}

func testCommand(out io.Writer) *cobra.Command {
	c := &cobra.Command{}
	c.SetOut(out)
	c.SetErr(io.Discard)
	c.SetContext(context.Background())
	return c
}

func TestAnalyze(t *testing.T) {
	fw, app := fixtures(t)

	tests := []struct {
		name       string
		framework  string
		resolved   int
		unresolved int
		fwClasses  int
	}{
		{"with framework", fw, 1, 0, 2},
		{"without framework", "", 0, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Framework = tt.framework
			a, err := analyze(context.Background(), cfg, app, logging.Discard())
			if err != nil {
				t.Fatalf("analyze() error = %v", err)
			}
			defer a.Close()

			if a.Stats.Classes != 1 || a.Stats.Translated != 1 {
				t.Errorf("stats = %+v", a.Stats)
			}
			if a.Stats.Calls.Resolved != tt.resolved || a.Stats.Calls.Unresolved != tt.unresolved {
				t.Errorf("calls = %+v, want %d resolved and %d unresolved", a.Stats.Calls, tt.resolved, tt.unresolved)
			}
			if a.Framework != tt.fwClasses {
				t.Errorf("Framework = %d, want %d", a.Framework, tt.fwClasses)
			}
			if len(a.Digest) != 64 {
				t.Errorf("Digest = %q", a.Digest)
			}
		})
	}
}

func TestAnalyzeErrors(t *testing.T) {
	_, app := fixtures(t)
	cfg := config.Default()
	cfg.Framework = filepath.Join(t.TempDir(), "absent.dex")
	if _, err := analyze(context.Background(), cfg, app, logging.Discard()); err == nil {
		t.Error("analyze() with a missing framework succeeded")
	}

	bad := filepath.Join(t.TempDir(), "bad.dex")
	if err := os.WriteFile(bad, []byte("not a dex file at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := analyze(context.Background(), config.Default(), bad, logging.Discard()); err == nil {
		t.Error("analyze() of a malformed image succeeded")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := analyze(ctx, config.Default(), app, logging.Discard()); !errors.Is(err, context.Canceled) {
		t.Errorf("analyze() with a cancelled context = %v", err)
	}
}

func TestRunNoTUI(t *testing.T) {
	fw, app := fixtures(t)
	cfg := config.Default()
	cfg.Framework = fw

	var buf bytes.Buffer
	if err := runNoTUI(testCommand(&buf), cfg, app); err != nil {
		t.Fatal(err)
	}
	want := "app.Main\n" +
		"\tapp.Main/onCreate[android.os.Bundle]\n" +
		"\t\t<SPECIAL,ARGUMENT_SET,extra=[1, 2]>\n" +
		"\t\t<MOV,CONST,dst=r0,type=void,extra=7>\n" +
		"\t\t<INVOKE,VIRTUAL,extra=[android.app.Activity/setContentView[int]:void, [1, 0]]>\n" +
		"\t\t<RETURN,VOID>\n"
	if buf.String() != want {
		t.Errorf("dump mismatch\ngot:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestRunJSON(t *testing.T) {
	_, app := fixtures(t)
	var buf bytes.Buffer
	if err := runJSON(testCommand(&buf), config.Default(), app); err != nil {
		t.Fatal(err)
	}
	var report struct {
		Digest     string `json:"digest"`
		ClassCount int    `json:"class_count"`
		Classes    []struct {
			Name string `json:"name"`
			Base string `json:"base"`
		} `json:"classes"`
	}
	if err := json.Unmarshal(buf.Bytes(), &report); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if report.ClassCount != 1 || report.Classes[0].Name != "app.Main" {
		t.Errorf("report = %+v", report)
	}
	if report.Classes[0].Base != "android.app.Activity" {
		t.Errorf("base = %q", report.Classes[0].Base)
	}
}

func TestStatsTables(t *testing.T) {
	fw, app := fixtures(t)
	cfg := config.Default()
	cfg.Framework = fw
	a, err := analyze(context.Background(), cfg, app, logging.Discard())
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	checks := []struct {
		name  string
		table string
		want  []string
	}{
		{"load", loadTable(a), []string{"translated", "calls resolved", "framework classes"}},
		{"opcodes", opcodeTable(a.Scope()), []string{"INVOKE", "RETURN", "SPECIAL", "4"}},
		{"largest", largestMethods(a.Scope(), 5), []string{"app.Main/onCreate[android.os.Bundle]"}},
	}
	for _, c := range checks {
		for _, w := range c.want {
			if !strings.Contains(c.table, w) {
				t.Errorf("%s table missing %q:\n%s", c.name, w, c.table)
			}
		}
	}
}

func TestSnapshotCommand(t *testing.T) {
	_, app := fixtures(t)
	out := filepath.Join(t.TempDir(), "out.cbor")
	var buf bytes.Buffer
	c := testCommand(&buf)
	c.Flags().String("output", out, "")
	c.Flags().Bool("all", false, "")
	if err := snapshotCmd.RunE(c, []string{app}); err != nil {
		t.Fatal(err)
	}
	first, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if err := snapshotCmd.RunE(c, []string{app}); err != nil {
		t.Fatal(err)
	}
	second, _ := os.ReadFile(out)
	if !bytes.Equal(first, second) {
		t.Error("snapshots of the same input differ")
	}
	if !strings.Contains(buf.String(), "wrote 1 classes") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestExportSQLiteCommand(t *testing.T) {
	_, app := fixtures(t)
	db := filepath.Join(t.TempDir(), "graph.db")
	var buf bytes.Buffer
	c := testCommand(&buf)
	c.Flags().StringP("output", "o", "", "")
	c.Flags().Bool("all", false, "")
	if err := c.Flags().Set("output", db); err != nil {
		t.Fatal(err)
	}
	if err := exportSQLiteCmd.RunE(c, []string{app}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "exported 1 classes, 1 methods, 0 fields, 1 calls") {
		t.Errorf("output = %q", buf.String())
	}
	if _, err := os.Stat(db); err != nil {
		t.Errorf("database not written: %v", err)
	}
}

func TestLoadConfigFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")
	if err := os.WriteFile(path, []byte("api_level = 21\nworkers = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c := testCommand(io.Discard)
	c.Flags().String("config", path, "")
	c.Flags().Int("api", 0, "")
	c.Flags().Bool("no-translate", false, "")
	if err := c.Flags().Set("api", "30"); err != nil {
		t.Fatal(err)
	}
	if err := c.Flags().Set("no-translate", "true"); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APILevel != 30 {
		t.Errorf("APILevel = %d, the flag should win", cfg.APILevel)
	}
	if cfg.Workers != 2 {
		t.Errorf("Workers = %d, want the file value", cfg.Workers)
	}
	if cfg.Translate {
		t.Error("--no-translate was ignored")
	}
}

func TestSchema(t *testing.T) {
	var buf bytes.Buffer
	c := testCommand(&buf)
	if err := schemaCmd.RunE(c, nil); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"api_level"`, `"neo4j"`, `"translate"`} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("schema missing %s", want)
		}
	}
}

func TestModel(t *testing.T) {
	fw, app := fixtures(t)
	cfg := config.Default()
	cfg.Framework = fw
	a, err := analyze(context.Background(), cfg, app, logging.Discard())
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	m := NewModel(cfg, app)
	if m.nextMode(1) != viewSummary {
		t.Error("only the summary is reachable before loading")
	}

	next, _ := m.Update(digestMsg{digest: a.Digest})
	next, _ = next.(model).Update(loadedMsg{result: a})
	m = next.(model)
	if m.loading {
		t.Error("still loading after loadedMsg")
	}
	if n := len(m.classList.Items()); n != 1 {
		t.Fatalf("class list has %d items, want 1", n)
	}
	md := m.summaryMarkdown()
	for _, want := range []string{a.Digest, "| Translated | 1 |", "| Framework classes | 2 |"} {
		if !strings.Contains(md, want) {
			t.Errorf("summary missing %q:\n%s", want, md)
		}
	}

	m.mode = m.nextMode(1)
	if m.mode != viewClasses {
		t.Fatalf("mode = %v, want classes", m.mode)
	}
	item := m.classList.Items()[0].(classItem)
	if item.base != "android.app.Activity" || item.methods != 1 {
		t.Errorf("item = %+v", item)
	}
	m.showClass(item.class)
	if m.mode != viewMethods || m.selected != item.class {
		t.Errorf("showClass did not switch to the method view")
	}
	if m.nextMode(1) != viewSummary {
		t.Error("tab from the method view should wrap to the summary")
	}
}

func TestModelLoadError(t *testing.T) {
	_, app := fixtures(t)
	m := NewModel(config.Default(), app)
	next, _ := m.Update(loadedMsg{err: errors.New("bad image")})
	m = next.(model)
	if !strings.Contains(m.summaryMarkdown(), "bad image") {
		t.Error("load error not shown in the summary")
	}
	if len(m.classList.Items()) != 0 {
		t.Error("class list should stay empty")
	}
}
