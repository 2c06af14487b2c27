/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package main is the wikicrawler command.
//
// Without a subcommand it reads commands from stdin.  The run
// subcommand executes scripts, serve accepts commands over
// WebSockets, and mqtt accepts them from an MQTT broker.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/GRAYgoose124/wikicrawler/config"
	"github.com/GRAYgoose124/wikicrawler/sio"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "0.1.0"

// start loads the configuration and assembles the app.  The returned
// function releases everything.
func (o *options) start(ctx context.Context) (*app, func(), error) {
	if o.noColor {
		color.NoColor = true
	}
	conf, err := config.Load(o.configFile)
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(conf, o.verbose)
	if err != nil {
		return nil, nil, err
	}
	a, err := newApp(ctx, conf, o, logger)
	if err != nil {
		logger.Sync()
		return nil, nil, err
	}
	stop := func() {
		if err := a.close(context.Background()); err != nil {
			logger.Error("close", zap.Error(err))
		}
		logger.Sync()
	}
	return a, stop, nil
}

func newRootCmd() *cobra.Command {
	o := &options{}

	root := &cobra.Command{
		Use:           "wikicrawler",
		Short:         "Explore Wikipedia by similarity",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, stop, err := o.start(cmd.Context())
			if err != nil {
				return err
			}
			defer stop()

			io := sio.NewStdio(o.shellExpand, a.logger)
			io.Out = cmd.OutOrStdout()
			a.prompt.Out = io.Out

			color.New(color.FgCyan, color.Bold).Fprintf(cmd.ErrOrStderr(),
				"wikicrawler %s: type help for commands, quit to leave\n", version)

			return a.loop().Run(cmd.Context(), io)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&o.configFile, "config", "", "configuration file (default $WIKICRAWLER_ROOT/config.yaml)")
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "debug logging")
	flags.Int64Var(&o.seed, "seed", 0, "seed for the oracle's random choices")
	flags.BoolVar(&o.noColor, "no-color", false, "disable colored output")
	flags.BoolVar(&o.shellExpand, "shell-expand", false, "expand <<shell commands>> in input")

	runCmd := &cobra.Command{
		Use:   "run <script|file>...",
		Short: "Run scripts or command lines and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, stop, err := o.start(cmd.Context())
			if err != nil {
				return err
			}
			defer stop()
			out := cmd.OutOrStdout()
			return a.runScripts(cmd.Context(), args, func(s string) {
				fmt.Fprintln(out, s)
			})
		},
	}

	var addr string
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Accept commands over WebSockets",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, stop, err := o.start(cmd.Context())
			if err != nil {
				return err
			}
			defer stop()
			if addr == "" {
				addr = a.conf.Serve.Addr
			}
			l := a.loop()
			l.HaltOnInputEOF = false
			return l.Run(cmd.Context(), sio.NewWebSocket(addr, a.logger))
		},
	}
	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address (default from configuration)")

	mqttCmd := &cobra.Command{
		Use:   "mqtt",
		Short: "Accept commands from an MQTT broker",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, stop, err := o.start(cmd.Context())
			if err != nil {
				return err
			}
			defer stop()
			mc := a.conf.MQTT
			m := sio.NewMQTT(sio.MQTTConf{
				Broker:       mc.Broker,
				ClientId:     mc.ClientId,
				Username:     mc.Username,
				Password:     mc.Password,
				CommandTopic: mc.CommandTopic,
				ResultTopic:  mc.ResultTopic,
				QoS:          mc.QoS,
			}, a.logger)
			l := a.loop()
			l.HaltOnInputEOF = false
			return l.Run(cmd.Context(), m)
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := config.Load(o.configFile)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sio.JSON(conf))
			return nil
		},
	}

	root.AddCommand(runCmd, serveCmd, mqttCmd, configCmd)
	return root
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "wikicrawler: %v\n", err)
		cancel()
		os.Exit(1)
	}
}
