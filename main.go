package main

import (
	"github.com/FALLENEZER/Spotik-sub003/cmd"
)

func main() {
	cmd.Execute()
}
