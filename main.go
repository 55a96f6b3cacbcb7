package main

import (
	"github.com/tebeka/atexit"

	"github.com/sarchlab/ringnet/cmd"
)

func main() {
	defer atexit.Exit(0)

	cmd.Execute()
}
