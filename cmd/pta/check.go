package main

import (
	"fmt"

	"github.com/BarrensZeppelin/andersen/verify"
	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var checkCmd = &cobra.Command{
	Use:   "check program.yaml expected.txt",
	Short: "Compares the computed call graph against a golden file",
	Long: `Compares the computed call graph against a golden file

Every call whose computed callees differ from the expected ones is reported.
The command fails if any mismatch is found.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return check(cmd, args[0], args[1])
	},
}

func init() {
	RootCmd.AddCommand(checkCmd)
}

func check(cmd *cobra.Command, progPath, expectedPath string) error {
	prog, err := loadProgram(progPath, nil)
	if err != nil {
		return err
	}

	mismatches, err := verify.Check(cmd.Context(), prog, verify.Config{
		ExpectedPath: expectedPath,
		MaxSteps:     viper.GetInt("max-steps"),
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(mismatches) == 0 {
		color.New(color.FgGreen).Fprintln(out, "Call graph matches", expectedPath)
		return nil
	}

	red := color.New(color.FgRed)
	for _, m := range mismatches {
		red.Fprintln(out, m)
	}
	log.Debugf("%d mismatches", len(mismatches))
	return fmt.Errorf("%d call graph mismatches", len(mismatches))
}
