package main

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ChristopherRabotin/ephem"
	"github.com/ChristopherRabotin/ephem/daf"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// writeKernel writes a kernel where each body moves linearly relative to the solar system
// barycenter over [-1e5, 1e5] seconds past J2000.
func writeKernel(t *testing.T, dir, name string, states map[int]ephem.StateVector) string {
	t.Helper()
	var segs []daf.Array
	for _, id := range []int{399, 499, 301} {
		st, ok := states[id]
		if !ok {
			continue
		}
		recs := make([]ephem.ChebyshevRecord, 4)
		for k := range recs {
			mid := -1e5 + 25000*float64(2*k+1)
			recs[k] = ephem.ChebyshevRecord{Mid: mid, Radius: 25000, Coeffs: make([][]float64, 3)}
			for i := 0; i < 3; i++ {
				recs[k].Coeffs[i] = []float64{st.Position[i] + st.Velocity[i]*mid, st.Velocity[i] * 25000}
			}
		}
		seg, err := ephem.ChebyshevSegment(id, ephem.SSB, ephem.J2000, recs)
		if err != nil {
			t.Fatal(err)
		}
		segs = append(segs, seg)
	}
	buf, err := ephem.WriteSPK(name, binary.LittleEndian, segs...)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name+".bsp")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(ephem.ConfigEnv, "")
	cmd := newRootCmd()
	var out, logs bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&logs)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func planets(t *testing.T, dir string) string {
	return writeKernel(t, dir, "planets", map[int]ephem.StateVector{
		399: {},
		499: {Position: [3]float64{2e8, 0, 0}, Velocity: [3]float64{0, 20, 0}},
	})
}

func TestState(t *testing.T) {
	kernel := planets(t, t.TempDir())
	out, err := run(t, "state", "--target", "MARS", "--observer", "EARTH", "--at", "ET 0", kernel)
	if err != nil {
		t.Fatal(err)
	}
	for _, exp := range []string{"range = 200000000.000000 km", "light time = 0.000000000 s", "V = +0.000000000e+00 +2.000000000e+01"} {
		if !strings.Contains(out, exp) {
			t.Fatalf("output misses %q:\n%s", exp, out)
		}
	}
	out, err = run(t, "state", "--target", "499", "--observer", "399", "--at", "ET 0", "--abcorr", "lt", "--elements", kernel)
	if err != nil {
		t.Fatal(err)
	}
	for _, exp := range []string{"light time = 667.128", "elements about EARTH (399)"} {
		if !strings.Contains(out, exp) {
			t.Fatalf("output misses %q:\n%s", exp, out)
		}
	}
	t.Logf("[OK]\n%s", out)
}

func TestStatePriority(t *testing.T) {
	dir := t.TempDir()
	first := planets(t, dir)
	second := writeKernel(t, dir, "update", map[int]ephem.StateVector{
		499: {Position: [3]float64{3e8, 0, 0}},
	})
	out, err := run(t, "state", "--target", "MARS", "--observer", "EARTH", "--at", "ET 0", first, second)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "range = 300000000.000000 km") {
		t.Fatalf("the last kernel should have priority:\n%s", out)
	}
	out, err = run(t, "state", "--target", "MARS", "--observer", "EARTH", "--at", "ET 0", second, first)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "range = 200000000.000000 km") {
		t.Fatalf("the last kernel should have priority:\n%s", out)
	}
}

func TestStateErrors(t *testing.T) {
	kernel := planets(t, t.TempDir())
	if _, err := run(t, "state", "--target", "VULCAN", "--observer", "EARTH", "--at", "ET 0", kernel); !errors.Is(err, ephem.ErrInvalidBody) {
		t.Fatalf("expected ErrInvalidBody, got %v", err)
	}
	if _, err := run(t, "state", "--target", "MOON", "--observer", "EARTH", "--at", "ET 0", kernel); !errors.Is(err, ephem.ErrNoCoverage) {
		t.Fatalf("expected ErrNoCoverage, got %v", err)
	}
	if _, err := run(t, "state", "--target", "MARS", "--observer", "EARTH", "--at", "ET 0"); err == nil {
		t.Fatal("no kernel should fail")
	}
	if _, err := run(t, "state", "--target", "MARS", "--observer", "EARTH", "--at", "ET 0", filepath.Join(t.TempDir(), "missing.bsp")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected a missing file, got %v", err)
	}
	if _, err := run(t, "state", "--target", "MARS", "--observer", "EARTH", "--at", "yesterday", kernel); err == nil {
		t.Fatal("an invalid epoch should fail")
	}
	if _, err := run(t, "--log-level", "chatty", "segments", kernel); err == nil {
		t.Fatal("an invalid log level should fail")
	}
}

func TestSegments(t *testing.T) {
	dir := t.TempDir()
	kernel := planets(t, dir)
	// Kernels listed in the configuration are relative to it.
	conf := "[kernels]\nfiles = [\"planets.bsp\"]\n[log]\nlevel = \"none\"\n"
	if err := os.WriteFile(filepath.Join(dir, "conf.toml"), []byte(conf), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, "--config", dir, "segments")
	if err != nil {
		t.Fatal(err)
	}
	for _, exp := range []string{kernel, `"planets"`, "2 segments", "EARTH", "MARS", "1999-12-31 08:12:15"} {
		if !strings.Contains(out, exp) {
			t.Fatalf("output misses %q:\n%s", exp, out)
		}
	}
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	kernel := planets(t, dir)
	out := filepath.Join(dir, "out")
	stdout, err := run(t, "export", "--target", "MARS", "--observer", "EARTH", "--at", "ET -600", "--end", "ET 600", "--step", "60", "--elements", "--out", out, kernel)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "catalog-MARS.json") {
		t.Fatalf("unexpected output %s", stdout)
	}
	f, err := os.Open(filepath.Join(out, "MARS.xyzv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	states, err := ephem.ParseInterpolatedStates(f)
	if err != nil {
		t.Fatal(err)
	}
	if len(states) != 21 || states[10].Position[0] != 2e8 {
		t.Fatalf("unexpected states (%d): %+v", len(states), states[10])
	}
	for _, name := range []string{"catalog-MARS.json", "elements-MARS.csv"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := run(t, "export", "--target", "MARS", "--observer", "EARTH", "--at", "ET 0", "--end", "ET 600", "--frame", "IAU_EARTH", "--out", out, kernel); !errors.Is(err, ephem.ErrInvalidFrame) {
		t.Fatalf("expected ErrInvalidFrame, got %v", err)
	}
}
