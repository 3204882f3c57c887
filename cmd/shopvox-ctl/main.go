package main

import (
	"fmt"
	"os"
	"strings"

	cli "github.com/spf13/pflag"

	"shopvox/internal/ipc"
)

func main() {
	socket := cli.StringP("socket", "s", ipc.SocketPath, "Control socket of a running shopvox")
	cli.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: shopvox-ctl [-s socket] <product query> | quit\n")
		cli.PrintDefaults()
	}
	cli.Parse()

	text := strings.TrimSpace(strings.Join(cli.Args(), " "))
	if text == "" {
		cli.Usage()
		os.Exit(2)
	}

	msg := ipc.ControlMessage{Cmd: ipc.CmdQuery, Text: text}
	if strings.EqualFold(text, "quit") {
		msg = ipc.ControlMessage{Cmd: ipc.CmdQuit}
	}

	if err := ipc.SendCommand(*socket, msg); err != nil {
		fmt.Fprintln(os.Stderr, "shopvox not running:", err)
		os.Exit(1)
	}
}
