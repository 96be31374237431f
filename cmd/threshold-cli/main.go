// Command threshold-cli splits secrets across a decryptor committee,
// reconstructs them and checks shares against their commitments.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/luxfi/thresholddecrypt/pkg/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const envPrefix = "THRESHOLD"

// app carries the state shared by all subcommands.
type app struct {
	v   *viper.Viper
	log *zap.Logger
	out io.Writer
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{v: viper.New(), log: zap.NewNop(), out: out}

	root := &cobra.Command{
		Use:   "threshold-cli",
		Short: "Threshold secret sharing with verifiable shares",
		Long: `Split a secret into shares so that any threshold of them reconstruct it,
detect corrupted shares with a public commitment and recover the secret.

Every flag can also be set through the environment (THRESHOLD_<FLAG>, dashes
replaced by underscores) or a config file passed with --config.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.log.Sync()
		},
	}
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (yaml, json or toml)")
	pf.String("log-level", "warn", "log level: debug, info, warn, error")
	pf.String("log-encoding", string(logging.EncodingConsole), "log encoding: console, json")

	root.AddCommand(
		a.splitCmd(),
		a.combineCmd(),
		a.verifyCmd(),
		a.simulateCmd(),
		a.infoCmd(),
	)
	return root
}

// setup binds the flags of the running command, reads the config file and
// builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}

	if path := a.v.GetString("config"); path != "" {
		a.v.SetConfigFile(path)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
	}

	log, err := logging.New(logging.Config{
		Level:    a.v.GetString("log-level"),
		Encoding: logging.Encoding(a.v.GetString("log-encoding")),
		Name:     "threshold-cli",
	})
	if err != nil {
		return err
	}
	a.log = log
	return nil
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
