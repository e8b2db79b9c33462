// Command cpdemo exercises the constraint kernel end to end: it builds a
// small packing model, searches it, and round-trips the solution through
// the assignment wire format. It is a host-side driver, not part of the
// kernel.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/gitrdm/cpkernel/internal/parallel"
	"github.com/gitrdm/cpkernel/internal/wire"
	"github.com/gitrdm/cpkernel/pkg/cpkernel"
)

func main() {
	root := &cobra.Command{
		Use:   "cpdemo",
		Short: "Demonstration driver for the cpkernel constraint solver",
	}
	root.AddCommand(solveCmd(), inspectCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildModel constructs a toy placement model: n unit squares on a
// 1 x n strip whose x-coordinates must also sum to a target.
func buildModel(n int) (*cpkernel.Solver, []*cpkernel.IntVar, *cpkernel.Assignment, error) {
	s := cpkernel.NewSolver("cpdemo")
	xs := make([]*cpkernel.IntVar, n)
	ys := make([]*cpkernel.IntVar, n)
	dxs := make([]*cpkernel.IntVar, n)
	dys := make([]*cpkernel.IntVar, n)
	for i := 0; i < n; i++ {
		xs[i] = s.NewIntVar(0, int64(n-1), fmt.Sprintf("x%d", i))
		ys[i] = s.FixedValueVar(0, fmt.Sprintf("y%d", i))
		dxs[i] = s.FixedValueVar(1, "")
		dys[i] = s.FixedValueVar(1, "")
	}
	if err := s.MakeNonOverlapping(xs, ys, dxs, dys); err != nil {
		return nil, nil, nil, err
	}
	total := s.NewIntVar(0, int64(n*n), "total")
	if err := s.MakeSumEquals(xs, total); err != nil {
		return nil, nil, nil, err
	}

	asg := s.NewAssignment()
	for _, x := range xs {
		asg.Add(x)
	}
	asg.AddObjective(total)
	return s, xs, asg, nil
}

func solveCmd() *cobra.Command {
	var (
		n       int
		out     string
		jobs    int
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve demo placement instances and store the first solution",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool := parallel.NewWorkerPool(jobs)
			defer pool.Shutdown()

			var mu sync.Mutex
			var firstErr error
			var wg sync.WaitGroup
			for size := 2; size <= n; size++ {
				size := size
				wg.Add(1)
				if err := pool.Submit(context.Background(), func() {
					defer wg.Done()
					err := solveOne(size, out, timeout)
					mu.Lock()
					if err != nil && firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
				}); err != nil {
					wg.Done()
					return err
				}
			}
			wg.Wait()
			return firstErr
		},
	}
	cmd.Flags().IntVar(&n, "size", 4, "largest instance size to solve")
	cmd.Flags().StringVar(&out, "out", "", "file to append serialized solutions to")
	cmd.Flags().IntVar(&jobs, "jobs", 0, "concurrent solver instances (0 = CPU count)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "per-instance time limit")
	return cmd
}

func solveOne(size int, out string, timeout time.Duration) error {
	s, xs, asg, err := buildModel(size)
	if err != nil {
		return err
	}
	limit := &cpkernel.Limit{Duration: timeout}
	search, found := s.Solve(cpkernel.NewAssignFirstUnbound(xs), limit)
	if !found {
		fmt.Printf("size %d: %s\n", size, search.Status())
		return nil
	}
	asg.Store()
	fmt.Printf("size %d: solution", size)
	for _, e := range asg.IntVarElements() {
		fmt.Printf(" %s=%d", e.Var().Name(), e.Value())
	}
	fmt.Println()

	if out != "" {
		f, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening %s: %w", out, err)
		}
		defer f.Close()
		if err := asg.Save(f); err != nil {
			return fmt.Errorf("saving assignment: %w", err)
		}
	}
	return nil
}

func inspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect-assignment <file>",
		Short: "Dump the records of a serialized assignment stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			for recNo := 0; ; recNo++ {
				rec, err := wire.Read(f)
				if err != nil {
					if errors.Is(err, io.EOF) {
						if recNo == 0 {
							return fmt.Errorf("empty stream")
						}
						return nil
					}
					return err
				}
				fmt.Printf("record %d:\n", recNo)
				for _, e := range rec.IntVars {
					fmt.Printf("  int %q [%d,%d] active=%v\n", e.Name, e.Min, e.Max, e.Active)
				}
				for _, e := range rec.IntervalVars {
					fmt.Printf("  interval %q start[%d,%d] dur[%d,%d] end[%d,%d] perf[%d,%d] active=%v\n",
						e.Name, e.StartMin, e.StartMax, e.DurMin, e.DurMax,
						e.EndMin, e.EndMax, e.PerfMin, e.PerfMax, e.Active)
				}
				for _, e := range rec.SequenceVars {
					fmt.Printf("  sequence %q %v active=%v\n", e.Name, e.Sequence, e.Active)
				}
				if rec.Objective != nil {
					fmt.Printf("  objective %q [%d,%d]\n", rec.Objective.Name, rec.Objective.Min, rec.Objective.Max)
				}
			}
		},
	}
	return cmd
}
