package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/ChristopherRabotin/ephem/bodies"
	"github.com/ChristopherRabotin/ephem/timesys"
	"github.com/spf13/cobra"
)

const briefLayout = "2006-01-02 15:04:05"

func newSegmentsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "segments [KERNEL...]",
		Short: "List the segments of each kernel",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := a.loadKernels(cmd.Context(), a.kernels(args))
			if err != nil {
				return err
			}
			names := bodies.New()
			out := cmd.OutOrStdout()
			for _, k := range pool.Kernels() {
				fmt.Fprintf(out, "%s (%q, %s, %d segments)\n", k.Name, k.InternalName, k.ByteOrder, len(k.Segments))
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "  TARGET\tCENTER\tFRAME\tTYPE\tSTART (UTC)\tEND (UTC)")
				for _, s := range k.Segments {
					fmt.Fprintf(tw, "  %s\t%s\t%d\t%d\t%s\t%s\n",
						names.Label(s.Target), names.Label(s.Center), s.Frame, s.DataType,
						timesys.FromET(s.Start).Format(briefLayout), timesys.FromET(s.End).Format(briefLayout))
				}
				if err := tw.Flush(); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
