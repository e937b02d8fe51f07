package main

import (
	"github.com/mehari-dev/cliniccall/cmd"
	"github.com/mehari-dev/cliniccall/internal/logging"
)

func main() {
	// Initialize logging
	logging.Init()
	cmd.Execute()
}
