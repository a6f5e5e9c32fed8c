package main

import "github.com/brogergvhs/endless/cmd"

func main() {
	cmd.Execute()
}
