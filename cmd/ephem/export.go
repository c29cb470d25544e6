package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ChristopherRabotin/ephem"
	"github.com/ChristopherRabotin/ephem/bodies"
	"github.com/ChristopherRabotin/ephem/frames"
	"github.com/ChristopherRabotin/ephem/timesys"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type exportFlags struct {
	stateFlags
	end  string
	step float64
	out  string
	name string
}

func newExportCmd(a *app) *cobra.Command {
	var f exportFlags
	cmd := &cobra.Command{
		Use:   "export [KERNEL...]",
		Short: "Sample states into a Cosmographia trajectory and optionally a CSV of osculating elements",
		Example: `  ephem export --target -82 --observer EARTH --at "2020-01-01" --end "2020-01-02" --step 60 --out traj de430.bsp sc.bsp`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.export(cmd, args, f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.target, "target", "", "target body name or NAIF ID")
	fl.StringVar(&f.observer, "observer", "", "observer body name or NAIF ID")
	fl.StringVar(&f.at, "at", "", "first epoch")
	fl.StringVar(&f.end, "end", "", "last epoch")
	fl.Float64Var(&f.step, "step", 60, "sampling step in seconds")
	fl.StringVar(&f.frame, "frame", "J2000", "output frame: J2000 or ECLIPJ2000")
	fl.StringVar(&f.abcorr, "abcorr", "NONE", "aberration correction")
	fl.BoolVar(&f.elements, "elements", false, "also write the osculating elements about the observer")
	fl.StringVar(&f.out, "out", ".", "output directory")
	fl.StringVar(&f.name, "name", "", "name of the trajectory (defaults to the target)")
	cmd.MarkFlagRequired("target")
	cmd.MarkFlagRequired("observer")
	cmd.MarkFlagRequired("at")
	cmd.MarkFlagRequired("end")
	return cmd
}

func (a *app) export(cmd *cobra.Command, args []string, f exportFlags) (err error) {
	start, err := timesys.Parse(f.at)
	if err != nil {
		return err
	}
	end, err := timesys.Parse(f.end)
	if err != nil {
		return err
	}
	corr, err := ephem.ParseAberration(f.abcorr)
	if err != nil {
		return err
	}
	names := bodies.New()
	target, err := names.NameToID(f.target)
	if err != nil {
		return fmt.Errorf("%w: %v", ephem.ErrInvalidBody, err)
	}
	observer, err := names.NameToID(f.observer)
	if err != nil {
		return fmt.Errorf("%w: %v", ephem.ErrInvalidBody, err)
	}
	req := ephem.SampleRequest{Target: target, Observer: observer, Start: start, End: end, Step: f.step, Frame: f.frame, Correction: corr}
	if _, err := req.Epochs(); err != nil {
		return err
	}
	if f.name == "" {
		f.name = names.Label(target)
	}
	conf := ephem.ExportConfig{Name: f.name, Center: names.Label(observer), Frame: f.frame}

	pool, err := a.loadKernels(cmd.Context(), a.kernels(args))
	if err != nil {
		return err
	}
	solver := ephem.NewSolver(pool, append(a.conf.SolverOptions(a.logger), ephem.WithFrames(frames.New()))...)

	if err := os.MkdirAll(f.out, 0o755); err != nil {
		return err
	}
	xyzv, err := os.Create(filepath.Join(f.out, f.name+".xyzv"))
	if err != nil {
		return err
	}
	defer closeFile(xyzv, &err)
	var elements io.Writer
	if f.elements {
		body, bErr := names.Body(observer)
		if bErr != nil {
			return bErr
		}
		conf.GM = body.GM()
		csvFile, cErr := os.Create(filepath.Join(f.out, "elements-"+f.name+".csv"))
		if cErr != nil {
			return cErr
		}
		defer closeFile(csvFile, &err)
		elements = csvFile
	}

	samples := make(chan ephem.Sample, 64)
	var catalog *ephem.CgCatalog
	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		return solver.Sample(ctx, req, samples)
	})
	g.Go(func() error {
		var sErr error
		catalog, sErr = ephem.StreamStates(conf, samples, xyzv, elements)
		return sErr
	})
	if err := g.Wait(); err != nil {
		return err
	}

	buf, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(f.out, "catalog-"+f.name+".json")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return err
	}
	level.Info(a.logger).Log("subsys", "cli", "event", "export", "catalog", path, "start", start, "end", end)
	fmt.Fprintf(cmd.OutOrStdout(), "saved %s and %s\n", xyzv.Name(), path)
	return nil
}

func closeFile(f *os.File, err *error) {
	if cErr := f.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}
