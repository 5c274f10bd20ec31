package main

import "messageboard/cmd/cli/command"

func main() {
	command.Execute()
}
