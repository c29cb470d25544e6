package main

import (
	"errors"
	"fmt"

	"github.com/ChristopherRabotin/ephem"
	"github.com/ChristopherRabotin/ephem/bodies"
	"github.com/ChristopherRabotin/ephem/frames"
	"github.com/ChristopherRabotin/ephem/timesys"
	"github.com/spf13/cobra"
)

type stateFlags struct {
	target, observer string
	at               string
	frame            string
	abcorr           string
	elements         bool
}

func newStateCmd(a *app) *cobra.Command {
	var f stateFlags
	cmd := &cobra.Command{
		Use:   "state [KERNEL...]",
		Short: "Print the state of a target relative to an observer",
		Example: `  ephem state --target MARS --observer EARTH --at "2020-01-01 00:00:00" de430.bsp
  ephem state --target 301 --observer 399 --at "JD 2458849.5" --abcorr LT+S --frame ECLIPJ2000 de430.bsp`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.state(cmd, args, f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.target, "target", "", "target body name or NAIF ID")
	fl.StringVar(&f.observer, "observer", "", "observer body name or NAIF ID")
	fl.StringVar(&f.at, "at", "", `epoch, e.g. "2020-01-01 00:00:00", "2020-01-01T00:00:00 TDB", "JD 2458849.5" or "ET 631108800"`)
	fl.StringVar(&f.frame, "frame", "J2000", "output frame")
	fl.StringVar(&f.abcorr, "abcorr", "NONE", "aberration correction: NONE, LT, LT+S, CN, CN+S, or X prefixed for transmission")
	fl.BoolVar(&f.elements, "elements", false, "also print the osculating elements about the observer")
	cmd.MarkFlagRequired("target")
	cmd.MarkFlagRequired("observer")
	cmd.MarkFlagRequired("at")
	return cmd
}

func (a *app) state(cmd *cobra.Command, args []string, f stateFlags) error {
	et, err := timesys.Parse(f.at)
	if err != nil {
		return err
	}
	pool, err := a.loadKernels(cmd.Context(), a.kernels(args))
	if err != nil {
		return err
	}
	names := bodies.New()
	opts := append(a.conf.SolverOptions(a.logger), ephem.WithFrames(frames.New()), ephem.WithBodies(names))
	solver := ephem.NewSolver(pool, opts...)

	st, err := solver.StateByName(f.target, et, f.frame, f.abcorr, f.observer)
	if err != nil && !errors.Is(err, ephem.ErrDivergentCorrection) {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s wrt %s at %s (ET %.6f) in %s with %s\n", f.target, f.observer, timesys.FromET(et).Format("2006-01-02 15:04:05.000 UTC"), et, f.frame, f.abcorr)
	fmt.Fprintf(out, "R = %+.9e %+.9e %+.9e km\n", st.Position[0], st.Position[1], st.Position[2])
	fmt.Fprintf(out, "V = %+.9e %+.9e %+.9e km/s\n", st.Velocity[0], st.Velocity[1], st.Velocity[2])
	fmt.Fprintf(out, "range = %.6f km, light time = %.9f s\n", st.Range(), st.LightTime)
	if f.elements {
		if eErr := printElements(cmd, names, f.observer, st); eErr != nil {
			return eErr
		}
	}
	return err
}

func printElements(cmd *cobra.Command, names *bodies.Table, observer string, st ephem.StateVector) error {
	id, err := names.NameToID(observer)
	if err != nil {
		return err
	}
	body, err := names.Body(id)
	if err != nil {
		return err
	}
	if body.GM() <= 0 {
		return fmt.Errorf("no GM for %s", body)
	}
	el := ephem.NewElements(st, body.GM())
	fmt.Fprintf(cmd.OutOrStdout(), "elements about %s: %s\n", body, el)
	return nil
}
