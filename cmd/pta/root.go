package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"

	"github.com/BarrensZeppelin/andersen/ir"
	"github.com/BarrensZeppelin/andersen/irutil"
	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile    string // Path to config file
	cpuprofile string // Path to CPU profile
	stopProf   func()
)

var RootCmd = &cobra.Command{
	Use:   "pta",
	Short: "Whole-program pointer analysis and call graph construction",
	Long: `pta computes an Andersen-style points-to analysis and an on-the-fly call
graph for programs given as YAML program descriptions.

Use "pta [command] program.yaml" to analyse a program.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(); err != nil {
			return err
		}
		return startProfile()
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := RootCmd.ExecuteContext(ctx)
	if stopProf != nil {
		stopProf()
	}
	if err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := RootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pta.yaml)")
	flags.StringVar(&cpuprofile, "cpuprofile", "", "write cpu profile to `file`")
	flags.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	flags.Bool("no-colour", false, "disable colour output")
	flags.Int("max-steps", 0, "abort the analysis after this many solver steps (0 means no limit)")

	for _, name := range []string{"log-level", "no-colour", "max-steps"} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".pta")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
	}

	viper.SetEnvPrefix("PTA")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		log.Debugln("Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		log.Fatalf("Reading config file failed: %v", err)
	}
}

func setupLogging() error {
	level, err := log.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		return err
	}
	log.SetLevel(level)

	noColour := viper.GetBool("no-colour")
	color.NoColor = color.NoColor || noColour
	log.SetFormatter(&log.TextFormatter{
		DisableColors:    noColour,
		DisableTimestamp: true,
	})
	return nil
}

func startProfile() error {
	if cpuprofile == "" {
		return nil
	}

	f, err := os.Create(cpuprofile)
	if err != nil {
		return fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return fmt.Errorf("could not start CPU profile: %w", err)
	}

	stopProf = func() {
		pprof.StopCPUProfile()
		if err := f.Close(); err != nil {
			log.Errorf("Failed to close %s: %v", cpuprofile, err)
		}
	}
	return nil
}

func loadProgram(path string, entries []string) (*ir.Program, error) {
	prog, err := irutil.LoadProgramFromFile(path)
	if err != nil {
		return nil, err
	}

	if len(entries) != 0 {
		prog.Entries = nil
		for _, sig := range entries {
			m, err := prog.Method(sig)
			if err != nil {
				return nil, fmt.Errorf("entry: %w", err)
			}
			prog.Entries = append(prog.Entries, m)
		}
	}

	log.Infof("Loaded %d classes, %d methods", len(prog.Hierarchy.Classes()), len(prog.Methods()))
	return prog, nil
}
