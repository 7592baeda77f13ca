package main

import "github.com/pennychain/pennychain/cmd"

func main() {
	cmd.Execute()
}
