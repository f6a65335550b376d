package main

import "github.com/sarchlab/nandsim/nandsim/cmd"

func main() {
	cmd.Execute()
}
