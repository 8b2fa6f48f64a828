package main

import (
	"fmt"

	"github.com/BarrensZeppelin/andersen"
	"github.com/BarrensZeppelin/andersen/verify"
	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	entries  []string
	pointsTo bool
	dump     bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze program.yaml",
	Short: "Analyses a program and prints its call graph",
	Long: `Analyses a program and prints its call graph

Reachable methods are printed first, followed by every call edge. With
--dump the call graph is printed in the format read by "pta check".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return analyze(cmd, args[0])
	},
}

func init() {
	RootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringArrayVar(&entries, "entry", nil, "entry method signature (overrides the program's entries)")
	analyzeCmd.Flags().BoolVar(&pointsTo, "points-to", false, "print the points-to sets of reachable variables")
	analyzeCmd.Flags().BoolVar(&dump, "dump", false, "print the call graph in golden file format")
}

func analyze(cmd *cobra.Command, path string) error {
	prog, err := loadProgram(path, entries)
	if err != nil {
		return err
	}

	res, err := andersen.Analyze(cmd.Context(), andersen.AnalysisConfig{
		Program:  prog,
		MaxSteps: viper.GetInt("max-steps"),
	})
	if err != nil {
		return err
	}

	log.Infof("%d reachable methods, %d call edges, %d steps",
		len(res.Reachable), res.CallGraph.NumEdges(), res.Steps)

	out := cmd.OutOrStdout()
	if dump {
		return verify.Dump(out, prog, res.CallGraph)
	}

	header := color.New(color.Bold).SprintFunc()

	fmt.Fprintln(out, header("Reachable methods:"))
	for _, m := range res.CallGraph.Reachable() {
		fmt.Fprintf(out, "  %v\n", m)
	}

	fmt.Fprintln(out, header("Call edges:"))
	for _, e := range res.CallGraph.Edges() {
		fmt.Fprintf(out, "  %v: %v -[%v]-> %v\n", e.Site.Parent(), e.Site, e.Kind, e.Callee)
	}

	if pointsTo {
		fmt.Fprintln(out, header("Points-to sets:"))
		for _, m := range res.CallGraph.Reachable() {
			for _, v := range m.Vars() {
				if pts := res.Var(v); !pts.IsEmpty() {
					fmt.Fprintf(out, "  %v/%v: %v\n", m, v, pts.Objects())
				}
			}
		}
	}

	if len(res.Diagnostics) != 0 {
		warn := color.New(color.FgYellow).FprintfFunc()
		for _, d := range res.Diagnostics {
			warn(cmd.ErrOrStderr(), "warning: %v\n", d)
		}
	}

	return nil
}
