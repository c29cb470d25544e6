package ephem

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-kit/log/level"
	"github.com/google/go-cmp/cmp"
	"github.com/spf13/viper"
)

func writeConf(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "conf.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoadConfig(t *testing.T) {
	dir := writeConf(t, `
[kernels]
files = ["de430.bsp", "/data/mar097.bsp"]

[log]
level = "debug"

[pool]
max_kernels = 10

[lighttime.lt]
max_iterations = 3
tolerance = 1e-9
`)
	conf, err := LoadConfig(dir)
	if err != nil {
		t.Fatal(err)
	}
	exp := Config{
		Kernels:    []string{filepath.Join(dir, "de430.bsp"), "/data/mar097.bsp"},
		LogLevel:   "debug",
		MaxKernels: 10,
		LT:         LightTimeParams{MaxIterations: 3, Tolerance: 1e-9},
		CN:         DefaultLightTime(CorrCN),
	}
	if !cmp.Equal(conf, exp) {
		t.Fatalf("unexpected configuration:\n%s", cmp.Diff(exp, conf))
	}
	t.Logf("[OK] %+v", conf)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv(ConfigEnv, "")
	if _, err := ConfigFromEnv(); err == nil {
		t.Fatal("an empty environment variable should fail")
	}
	t.Setenv(ConfigEnv, writeConf(t, "[log]\nlevel = \"warn\"\n"))
	conf, err := ConfigFromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if conf.LogLevel != "warn" || conf.MaxKernels != DefaultMaxKernels || len(conf.Kernels) != 0 {
		t.Fatalf("unexpected configuration %+v", conf)
	}
	t.Setenv(ConfigEnv, t.TempDir())
	if _, err := ConfigFromEnv(); err == nil {
		t.Fatal("a directory without conf file should fail")
	}
}

func TestConfigInvalid(t *testing.T) {
	for _, content := range []string{
		"[pool]\nmax_kernels = 0\n",
		"[lighttime.cn]\nmax_iterations = 0\n",
		"[lighttime.lt]\ntolerance = -1.0\n",
	} {
		if _, err := LoadConfig(writeConf(t, content)); err == nil {
			t.Fatalf("configuration should be invalid:\n%s", content)
		}
	}
}

func TestConfigOptions(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("lighttime.lt.max_iterations", 1)
	v.Set("pool.max_kernels", 1)
	conf, err := ConfigFromViper(v)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, conf.LogLevel)
	if err != nil {
		t.Fatal(err)
	}
	pool := NewKernelPool(conf.PoolOptions(logger)...)
	mustLoad(t, pool, "a", buildSPK(t, "a",
		fixedSegment(t, 499, 0, [3]float64{2e8, 0, 0}, -100, 100),
		linearSegment(t, 399, 0, J2000, [3]float64{}, [3]float64{0, 30, 0}, -100, 100),
	))
	if _, err := pool.Load("b", buildSPK(t, "b", fixedSegment(t, 301, 0, [3]float64{}, 0, 1))); !errors.Is(err, ErrTooManyKernels) {
		t.Fatalf("expected ErrTooManyKernels, got %v", err)
	}
	solver := NewSolver(pool, conf.SolverOptions(logger)...)
	if _, err := solver.State(499, 399, 0, "J2000", LT); !errors.Is(err, ErrDivergentCorrection) {
		t.Fatalf("expected ErrDivergentCorrection with a single iteration, got %v", err)
	}
	out := buf.String()
	for _, exp := range []string{"subsys=pool", "subsys=solver", "event=divergent", "level=warn"} {
		if !strings.Contains(out, exp) {
			t.Fatalf("log output misses %q:\n%s", exp, out)
		}
	}
}

func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "error")
	if err != nil {
		t.Fatal(err)
	}
	level.Info(logger).Log("msg", "hidden")
	level.Error(logger).Log("msg", "shown")
	if out := buf.String(); strings.Contains(out, "hidden") || !strings.Contains(out, "msg=shown") || !strings.Contains(out, "ts=") {
		t.Fatalf("unexpected output %q", out)
	}
	if _, err := NewLogger(&buf, "verbose"); err == nil {
		t.Fatal("unknown levels should fail")
	}
	if _, err := NewLogger(&buf, "NONE"); err != nil {
		t.Fatal(err)
	}
}
