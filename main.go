package main

import "github.com/chukul/mfactl/cmd"

func main() {
	cmd.Execute()
}
