// main is the entry point of the liftwatch CLI.
package main

import (
	"github.com/huangsam/liftwatch/cmd"
	"github.com/huangsam/liftwatch/internal/contract"
	"github.com/huangsam/liftwatch/internal/iocache"
)

func main() {
	err := cmd.Execute()
	iocache.CloseHistory()
	if err != nil {
		contract.LogFatal("liftwatch", err)
	}
}
