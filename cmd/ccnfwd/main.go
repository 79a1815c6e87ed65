// Command ccnfwd runs the content-centric-networking forwarding daemon.
package main

import (
	"github.com/ccnfwd/ccnfwd/fw/cmd"
	"go.uber.org/automaxprocs/maxprocs"
)

func main() {
	maxprocs.Set()
	cmd.CmdCCNFwd.Execute()
}
