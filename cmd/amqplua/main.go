// Command amqplua runs a Lua script with the amqp module preloaded.
//
//	amqplua [--config amqplua.toml] [--log-level debug] script.lua [args...]
//
// Script arguments are available to the script in the global table arg.
package main

import (
	"fmt"
	"os"

	"github.com/peake100/lamqp-go/amqp"
	"github.com/peake100/lamqp-go/amqplua"
	"github.com/peake100/lamqp-go/internal"
	"github.com/peake100/lamqp-go/native"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	lua "github.com/yuin/gopher-lua"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "amqplua script.lua [args...]",
		Short: "Run a Lua script with the amqp module",
		Long: "Runs a Lua script in an embedded interpreter where require(\"amqp\") " +
			"returns the AMQP connection and socket binding.",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runScript,
	}

	cmd.Flags().StringP("config", "c", "", "TOML configuration file")
	cmd.Flags().String("log-level", "", "Log level, overrides log_level in the config file")
	cmd.Flags().Int("max-connections", -1, "Connection cap, overrides max_connections")
	return cmd
}

func runScript(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := LoadFileConfig(configPath)
	if err != nil {
		return err
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	if limit, _ := cmd.Flags().GetInt("max-connections"); limit >= 0 {
		cfg.MaxConnections = limit
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	logger, logCloser := internal.CreateDefaultLogger(level, cmd.ErrOrStderr())
	defer logCloser.Close()

	nativeConfig, err := cfg.NativeConfig(logger)
	if err != nil {
		return err
	}
	client := native.NewClient(nativeConfig)
	defer client.Close()

	binding := amqp.New(amqp.Config{Library: client, Logger: logger})
	return execute(binding, args[0], args[1:])
}

// execute runs the script at path in a fresh Lua state with the binding preloaded.
func execute(binding *amqp.Binding, path string, scriptArgs []string) error {
	L := lua.NewState()
	defer L.Close()

	amqplua.Preload(L, binding)

	argTable := L.NewTable()
	argTable.RawSetInt(0, lua.LString(path))
	for i, value := range scriptArgs {
		argTable.RawSetInt(i+1, lua.LString(value))
	}
	L.SetGlobal("arg", argTable)

	if err := L.DoFile(path); err != nil {
		return fmt.Errorf("script %s: %w", path, err)
	}
	return nil
}
