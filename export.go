package ephem

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ChristopherRabotin/ephem/timesys"
)

// CgCatalog is a Cosmographia catalog.
type CgCatalog struct {
	Version string    `json:"version"`
	Name    string    `json:"name"`
	Items   []*CgItem `json:"items"`
	Require []string  `json:"require,omitempty"`
}

func (c *CgCatalog) String() string {
	return c.Name + "(" + c.Version + ")"
}

// CgItem is an item of a Cosmographia catalog.
type CgItem struct {
	Class           string            `json:"class"`
	Name            string            `json:"name"`
	StartTime       string            `json:"startTime"`
	EndTime         string            `json:"endTime"`
	Center          string            `json:"center"`
	TrajectoryFrame string            `json:"trajectoryFrame"`
	Trajectory      *CgTrajectory     `json:"trajectory,omitempty"`
	Label           *CgLabel          `json:"label,omitempty"`
	TrajectoryPlot  *CgTrajectoryPlot `json:"trajectoryPlot,omitempty"`
}

// CgTrajectory definition.
type CgTrajectory struct {
	Type   string `json:"type,omitempty"`
	Source string `json:"source,omitempty"`
}

// Validate validates a CgTrajectory.
func (t *CgTrajectory) Validate() error {
	if t.Type != "InterpolatedStates" || !strings.HasSuffix(t.Source, "xyzv") {
		return errors.New("only InterpolatedStates are currently supported in Cosmographia trajectory types")
	}
	return nil
}

func (t *CgTrajectory) String() string {
	return t.Source + " as " + t.Type
}

// CgLabel definition.
type CgLabel struct {
	Color    []float64 `json:"color,omitempty"`
	FadeSize int       `json:"fadeSize,omitempty"`
	ShowText bool      `json:"showText,omitempty"`
}

// CgTrajectoryPlot definition.
type CgTrajectoryPlot struct {
	Color       []float64 `json:"color,omitempty"`
	LineWidth   int       `json:"lineWidth,omitempty"`
	Duration    string    `json:"duration,omitempty"`
	Lead        string    `json:"lead,omitempty"`
	Fade        int       `json:"fade,omitempty"`
	SampleCount int       `json:"sampleCount,omitempty"`
}

// CgInterpolatedState is a record of an xyzv file: a TDB Julian date and a state in km and km/s.
type CgInterpolatedState struct {
	JDE      float64
	Position [3]float64
	Velocity [3]float64
}

// FromText initializes from the seven fields of a record.
func (i *CgInterpolatedState) FromText(record []string) error {
	if len(record) != 7 {
		return fmt.Errorf("xyzv record has %d fields, expected 7", len(record))
	}
	var vals [7]float64
	for k, f := range record {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return fmt.Errorf("xyzv record: %w", err)
		}
		vals[k] = v
	}
	i.JDE = vals[0]
	copy(i.Position[:], vals[1:4])
	copy(i.Velocity[:], vals[4:7])
	return nil
}

// ToText converts to text for written output.
func (i *CgInterpolatedState) ToText() string {
	return fmt.Sprintf("%.9f %.6f %.6f %.6f %.9f %.9f %.9f", i.JDE, i.Position[0], i.Position[1], i.Position[2], i.Velocity[0], i.Velocity[1], i.Velocity[2])
}

// ParseInterpolatedStates reads the records of an xyzv file.
func ParseInterpolatedStates(r io.Reader) ([]CgInterpolatedState, error) {
	var states []CgInterpolatedState
	cr := csv.NewReader(r)
	cr.Comma = ' '
	cr.Comment = '#'
	cr.FieldsPerRecord = 7
	for {
		record, err := cr.Read()
		if err == io.EOF {
			return states, nil
		}
		if err != nil {
			return nil, err
		}
		var state CgInterpolatedState
		if err := state.FromText(record); err != nil {
			return nil, err
		}
		states = append(states, state)
	}
}

// Sample is the state of a target at an epoch.
type Sample struct {
	ET    float64
	State StateVector
}

// SampleRequest describes the states to sample: every Step seconds from Start to End, End included.
type SampleRequest struct {
	Target, Observer int
	Start, End, Step float64
	Frame            string
	Correction       AberrationMode
}

// Epochs returns the number of samples of this request.
func (r SampleRequest) Epochs() (int, error) {
	if !(r.Step > 0) || !(r.End >= r.Start) {
		return 0, fmt.Errorf("invalid sampling from %f to %f every %f s", r.Start, r.End, r.Step)
	}
	return int(math.Floor((r.End-r.Start)/r.Step)) + 1, nil
}

// Sample sends the requested states on out, then closes it. It returns early if the context
// is done or if a state cannot be computed. A divergent light-time correction is logged by
// the solver and does not stop the sampling.
func (s *Solver) Sample(ctx context.Context, req SampleRequest, out chan<- Sample) error {
	defer close(out)
	n, err := req.Epochs()
	if err != nil {
		return err
	}
	for k := 0; k < n; k++ {
		et := req.Start + float64(k)*req.Step
		st, err := s.State(req.Target, req.Observer, et, req.Frame, req.Correction)
		if err != nil && !errors.Is(err, ErrDivergentCorrection) {
			return fmt.Errorf("sample %d at ET %f: %w", k, et, err)
		}
		select {
		case out <- Sample{ET: et, State: st}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// ExportConfig configures the export of sampled states.
type ExportConfig struct {
	Name   string
	Center string
	Frame  string  // J2000 or ECLIPJ2000
	GM     float64 // of the center, for the elements
}

// cosmographiaFrame returns the Cosmographia name of a frame.
func cosmographiaFrame(frame string) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(frame)) {
	case "J2000":
		return "ICRF", nil
	case "ECLIPJ2000":
		return "EclipticJ2000", nil
	}
	return "", fmt.Errorf("%w: %q has no Cosmographia equivalent", ErrInvalidFrame, frame)
}

// StreamStates writes the samples received on the channel until it is closed, as
// Cosmographia interpolated states to xyzv and as osculating elements to elements.
// Either writer may be nil. It returns the catalog describing the trajectory.
func StreamStates(conf ExportConfig, samples <-chan Sample, xyzv, elements io.Writer) (*CgCatalog, error) {
	frame, err := cosmographiaFrame(conf.Frame)
	if err != nil {
		return nil, err
	}
	if elements != nil && !(conf.GM > 0) {
		return nil, fmt.Errorf("elements about %s require its GM", conf.Center)
	}
	var (
		first, last *Sample
		csvW        *csv.Writer
	)
	if elements != nil {
		csvW = csv.NewWriter(elements)
		if err := csvW.Write([]string{"time", "et", "a", "e", "i", "Omega", "omega", "nu"}); err != nil {
			return nil, err
		}
	}
	for sample := range samples {
		if first == nil {
			first = &sample
			if xyzv != nil {
				if _, err := fmt.Fprintf(xyzv, `# Creation date (UTC): %s
# Records are <jd> <x> <y> <z> <vel x> <vel y> <vel z>
#   Time is a TDB Julian date
#   Position in km
#   Velocity in km/sec
#   Start time (UTC): %s`, time.Now().UTC().Format(time.RFC3339), utc(sample.ET)); err != nil {
					return nil, err
				}
			}
		}
		last = &sample
		if xyzv != nil {
			rec := CgInterpolatedState{JDE: timesys.ETToJDE(sample.ET), Position: sample.State.Position, Velocity: sample.State.Velocity}
			if _, err := io.WriteString(xyzv, "\n"+rec.ToText()); err != nil {
				return nil, err
			}
		}
		if csvW != nil {
			el := NewElements(sample.State, conf.GM)
			row := []string{utc(sample.ET), strconv.FormatFloat(sample.ET, 'f', 3, 64)}
			for _, v := range []float64{el.SMA, el.Ecc} {
				row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
			}
			for _, v := range []float64{el.Inc, el.RAAN, el.ArgPeri, el.TrueAnom} {
				row = append(row, strconv.FormatFloat(rad2deg(v), 'f', 6, 64))
			}
			if err := csvW.Write(row); err != nil {
				return nil, err
			}
		}
	}
	if first == nil {
		return nil, errors.New("no state to export")
	}
	if xyzv != nil {
		if _, err := fmt.Fprintf(xyzv, "\n# End time (UTC): %s\n", utc(last.ET)); err != nil {
			return nil, err
		}
	}
	if csvW != nil {
		csvW.Flush()
		if err := csvW.Error(); err != nil {
			return nil, err
		}
	}

	color := []float64{0.6, 1, 1}
	days := int((last.ET-first.ET)/timesys.SecondsPerDay) + 1
	item := &CgItem{
		Class:           "spacecraft",
		Name:            conf.Name,
		StartTime:       utc(first.ET),
		EndTime:         utc(last.ET),
		Center:          conf.Center,
		TrajectoryFrame: frame,
		Trajectory:      &CgTrajectory{Type: "InterpolatedStates", Source: conf.Name + ".xyzv"},
		Label:           &CgLabel{Color: color, FadeSize: 1000000, ShowText: true},
		TrajectoryPlot:  &CgTrajectoryPlot{Color: color, LineWidth: 1, Duration: fmt.Sprintf("%d d", days), Lead: "0 d", SampleCount: 10},
	}
	return &CgCatalog{Version: "1.0", Name: conf.Name, Items: []*CgItem{item}}, nil
}

func utc(et float64) string {
	return timesys.FromET(et).Format("2006-01-02 15:04:05")
}
