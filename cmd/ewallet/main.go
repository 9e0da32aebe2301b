package main

import (
	"github.com/nusapay/ewallet/cmd/ewallet/commands"
)

func main() {
	commands.Execute()
}
