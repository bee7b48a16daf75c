package main

import (
	_ "embed"

	"github.com/karkow/idea-board/cmd"
)

//go:embed config/config.yaml
var c string

func main() {
	cmd.Execute(c)
}
