package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ChristopherRabotin/ephem"
	"github.com/go-kit/log/level"
	"golang.org/x/sync/errgroup"
)

const maxConcurrentReads = 8

// kernels returns the configured kernels followed by those given on the command line.
func (a *app) kernels(args []string) []string {
	return append(append([]string{}, a.conf.Kernels...), args...)
}

// loadKernels reads the files concurrently and loads them in the provided order, so the
// last file has the highest priority.
func (a *app) loadKernels(ctx context.Context, paths []string) (*ephem.KernelPool, error) {
	if len(paths) == 0 {
		return nil, errors.New("no kernel provided")
	}
	data := make([][]byte, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentReads)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			buf, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading kernel: %w", err)
			}
			data[i] = buf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pool := ephem.NewKernelPool(a.conf.PoolOptions(a.logger)...)
	for i, path := range paths {
		if _, err := pool.Load(path, data[i]); err != nil {
			return nil, err
		}
	}
	level.Debug(a.logger).Log("subsys", "cli", "event", "loaded", "kernels", pool.Len())
	return pool, nil
}
