package main

import (
	"os"

	"github.com/shirooni/typebot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
