package main

import "github.com/rongwang/finance-server/cmd/server/commands"

func main() {
	commands.Execute()
}
