// Copyright (c) 2023 the sddkit authors
//
// MIT License

// Command sddcli exercises the sdd library from the command line. It is not
// part of the public API; it exists to eyeball cache behavior and memory
// footprints on a small reachability computation.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sddkit/sdd"
)

var verbose bool

func main() {
	root := &cobra.Command{
		Use:   "sddcli",
		Short: "Exercise the sdd library",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.AddCommand(demoCmd(), sizesCmd())
	if err := root.Execute(); err != nil {
		logrus.WithError(err).Fatal("command failed")
	}
}

// incMod increments every element of a set modulo Mod.
type incMod struct {
	Mod int
}

func (f incMod) Apply(v sdd.Bitset) sdd.Bitset {
	out := sdd.BitsetOf()
	v.Each(func(e int) bool {
		out = out.With((e + 1) % f.Mod)
		return true
	})
	return out
}

func (f incMod) Selector() bool { return false }

func (f incMod) String() string { return fmt.Sprintf("inc mod %d", f.Mod) }

func demoCmd() *cobra.Command {
	var levels int
	var domain int
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Compute the reachable states of a bank of modular counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			k := sdd.New[sdd.Bitset]()
			ids := make([]string, levels)
			for i := range ids {
				ids[i] = fmt.Sprintf("c%d", i)
			}
			o := k.NewOrder(ids...)

			// initial state: every counter at 0
			x := k.One()
			for i := levels - 1; i >= 0; i-- {
				v, err := o.IdentifierVariable(ids[i])
				if err != nil {
					return err
				}
				x = k.Flat(v, sdd.BitsetOf(0), x)
			}

			ops := []sdd.Hom{k.Identity()}
			for _, id := range ids {
				v, err := o.IdentifierVariable(id)
				if err != nil {
					return err
				}
				ops = append(ops, k.ValuesFunction(v, incMod{domain}))
			}
			step, err := k.Sum(ops...)
			if err != nil {
				return err
			}
			reach := k.Rewrite(o, k.Fixpoint(step))
			logrus.WithField("hom", k.PrintHom(reach)).Debug("evaluating")

			res, err := k.Eval(reach, o, x)
			if err != nil {
				return err
			}
			fmt.Printf("order:     %s\n", o)
			fmt.Printf("reachable: %s states\n", k.Count(res))
			k.PrintStats(os.Stdout)
			return nil
		},
	}
	cmd.Flags().IntVar(&levels, "levels", 3, "number of counters")
	cmd.Flags().IntVar(&domain, "domain", 4, "size of each counter domain")
	return cmd
}

func sizesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sizes",
		Short: "Print the in-memory sizes of the library record types",
		Run: func(cmd *cobra.Command, args []string) {
			k := sdd.New[sdd.Bitset]()
			fmt.Print(k.Sizes())
		},
	}
}
