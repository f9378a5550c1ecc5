package main

import (
	"os"

	"github.com/MKlolbullen/bhtriage/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
