// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli"

	"github.com/bitmark-inc/rpccache/command/rpccache-cli/rpccalls"
)

const defaultConnect = "http://127.0.0.1:8645"

type metadata struct {
	client  *rpccalls.Client
	verbose bool
	e       io.Writer
	w       io.Writer
}

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

func main() {
	app := newApp(os.Stdout, os.Stderr)

	err := app.Run(os.Args)
	if nil != err {
		fmt.Fprintf(app.ErrWriter, "terminated with error: %s\n", err)
		os.Exit(1)
	}
}

func newApp(w io.Writer, e io.Writer) *cli.App {

	app := cli.NewApp()
	app.Name = "rpccache-cli"
	app.Usage = "manage a running rpccached"
	app.Version = version
	app.HideVersion = true

	app.Writer = w
	app.ErrWriter = e

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: " verbose result",
		},
		cli.StringFlag{
			Name:   "connect, c",
			Value:  defaultConnect,
			Usage:  " rpccached base `URL`",
			EnvVar: "RPCCACHE_CONNECT",
		},
		cli.BoolFlag{
			Name:  "insecure, k",
			Usage: " do not verify the server certificate",
		},
		cli.DurationFlag{
			Name:  "timeout, t",
			Value: 10 * time.Second,
			Usage: " request timeout `DURATION`",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:      "metrics",
			Usage:     "display cache counters",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "reset, r",
					Usage: " reset the counters after reading",
				},
			},
			Action: runMetrics,
		},
		{
			Name:      "size",
			Usage:     "display the bytes held by the store",
			ArgsUsage: " ",
			Action:    runSize,
		},
		{
			Name:      "details",
			Usage:     "display availability, metrics and size",
			ArgsUsage: " ",
			Action:    runDetails,
		},
		{
			Name:      "clear",
			Usage:     "delete every cached entry",
			ArgsUsage: " ",
			Action:    runClear,
		},
		{
			Name:      "clear-pattern",
			Usage:     "delete the entries whose keys match a glob",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "pattern, p",
					Value: "",
					Usage: "*key glob, e.g. \"*:totalSupply:*\" `PATTERN`",
				},
			},
			Action: runClearPattern,
		},
		{
			Name:      "burn",
			Usage:     "invalidate the entries affected by a token burn",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "token, t",
					Value: "",
					Usage: "*burnt token id `ID`",
				},
				cli.StringFlag{
					Name:  "creator, c",
					Value: "",
					Usage: " creator address of the token `ADDRESS`",
				},
			},
			Action: runBurn,
		},
		{
			Name:      "transfer",
			Usage:     "invalidate the entries affected by a token transfer",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "token, t",
					Value: "",
					Usage: "*transferred token id `ID`",
				},
				cli.StringFlag{
					Name:  "from, f",
					Value: "",
					Usage: " previous owner `ADDRESS`",
				},
				cli.StringFlag{
					Name:  "to, o",
					Value: "",
					Usage: " new owner `ADDRESS`",
				},
			},
			Action: runTransfer,
		},
		{
			Name:      "enable",
			Usage:     "answer reads from the cache",
			ArgsUsage: " ",
			Action:    runEnable(true),
		},
		{
			Name:      "disable",
			Usage:     "forward every read to the upstream node",
			ArgsUsage: " ",
			Action:    runEnable(false),
		},
		{
			Name:      "version",
			Usage:     "display rpccache-cli version",
			ArgsUsage: " ",
			Action: func(c *cli.Context) error {
				fmt.Fprintf(c.App.Writer, "%s\n", version)
				return nil
			},
		},
	}

	app.Before = func(c *cli.Context) error {

		e := c.App.ErrWriter
		verbose := c.GlobalBool("verbose")
		connect := c.GlobalString("connect")

		if verbose {
			fmt.Fprintf(e, "connect: %q\n", connect)
		}

		c.App.Metadata["config"] = &metadata{
			client:  rpccalls.NewClient(connect, c.GlobalBool("insecure"), c.GlobalDuration("timeout"), verbose, e),
			verbose: verbose,
			e:       e,
			w:       c.App.Writer,
		}
		return nil
	}

	return app
}
