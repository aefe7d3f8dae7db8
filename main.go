package main

import (
	"os"

	"github.com/smolBlackCat/progress-tracker/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
