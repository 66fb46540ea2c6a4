package main

import "github.com/dcmgrade/lorcanaprice/cmd"

func main() {
	cmd.Execute()
}
