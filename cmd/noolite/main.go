// noolite is a maintenance tool for a NooLite MTRF64 adapter.
//
// Usage:
//
//	noolite send     [flags] <channel> <command>   nooLite command (mode TX)
//	noolite send-f   [flags] <channel> <command>   nooLite-F command (mode TX_F)
//	noolite bind     [flags] <channel>             open the bind window on a receive channel
//	noolite unbind   [flags] <channel>             clear a receive channel
//	noolite discover [flags]                       publish Home Assistant discovery configs
//	noolite channels [flags]                       list channels seen by the bridge
//
// send, send-f, bind and unbind talk to the serial port directly, so stop
// the bridge first. They print every response frame received within -wait.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/noolite-mqtt/internal/infrastructure/config"
)

const (
	defaultConfigPath = "configs/config.yaml"
	configPathEnv     = "NOOLITE_CONFIG"
)

var errUsage = errors.New("usage error")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := dispatch(ctx, os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func dispatch(ctx context.Context, args []string, out io.Writer) error {
	if len(args) < 1 {
		usage(os.Stderr)
		return errUsage
	}

	name, rest := args[0], args[1:]
	switch name {
	case "send":
		return runSend(ctx, name, rest, out, false)
	case "send-f":
		return runSend(ctx, name, rest, out, true)
	case "bind":
		return runBind(ctx, name, rest, out, true)
	case "unbind":
		return runBind(ctx, name, rest, out, false)
	case "discover":
		return runDiscover(name, rest, out)
	case "channels":
		return runChannels(ctx, name, rest, out)
	case "help", "-h", "--help":
		usage(out)
		return nil
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
		usage(os.Stderr)
		return errUsage
	}
}

func usage(w io.Writer) {
	fmt.Fprint(w, `Usage: noolite <command> [flags] [args]

Commands:
  send     <channel> <command>   send a nooLite command (mode TX)
  send-f   <channel> <command>   send a nooLite-F command (mode TX_F)
  bind     <channel>             open the bind window on a receive channel
  unbind   <channel>             clear all bindings of a receive channel
  discover                       publish Home Assistant discovery configs
  channels                       list channels seen by the bridge

Commands are names (ON, OFF, TOGGLE, BRIGHT_SET, READ_STATE, ...) or numbers.
Run "noolite <command> -h" for flags.
`)
}

// commonFlags are shared by every subcommand.
type commonFlags struct {
	configPath string
}

func (c *commonFlags) register(flags *flag.FlagSet) {
	flags.StringVar(&c.configPath, "config", "", "config file (default $"+configPathEnv+" or "+defaultConfigPath+")")
}

// load reads the configuration. When no path was given and the default
// file does not exist, built-in defaults are used.
func (c *commonFlags) load() (*config.Config, error) {
	path := c.configPath
	explicit := path != ""
	if !explicit {
		path = os.Getenv(configPathEnv)
		explicit = path != ""
	}
	if !explicit {
		path = defaultConfigPath
	}

	cfg, err := config.Load(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return config.Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}
