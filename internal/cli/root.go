package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type flags struct {
	port       string
	configPath string
	logLevel   string
}

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	v := viper.New()
	v.SetEnvPrefix("QUIZ")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "quiz-session-service",
		Short:         "Live quiz sessions over REST and WebSocket",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			bindEnv(v, cmd.Flags())
		},
	}

	fs := cmd.PersistentFlags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	fs.StringVar(&f.port, "port", "", "port to listen on, overrides server.port (env: QUIZ_PORT)")
	fs.StringVar(&f.configPath, "config", "config/config.yaml", "path to YAML config (env: QUIZ_CONFIG)")
	fs.StringVar(&f.logLevel, "log-level", "", "log level, overrides log.level (env: QUIZ_LOG_LEVEL)")

	cmd.AddCommand(newStartCmd(f))
	cmd.AddCommand(newMigrateCmd(f))
	cmd.AddCommand(newSeedCmd(f))

	cmd.CompletionOptions.HiddenDefaultCmd = true
	return cmd
}

// bindEnv fills every flag not given on the command line from its QUIZ_ variable.
func bindEnv(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}
