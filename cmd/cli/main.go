package main

import (
	"github.com/mchmarny/nanotox/pkg/cli"
)

func main() {
	cli.Execute()
}
