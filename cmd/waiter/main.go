package main

import (
	"github.com/pizzeria-pos/waiter/internal/cli"
	"github.com/pizzeria-pos/waiter/internal/common/logtrace"
)

func init() {
	logtrace.InitLogger("")
}

func main() {
	cli.Execute()
}
