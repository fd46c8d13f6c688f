package main

import "github.com/bz888/oblaka/cmd"

func main() {
	cmd.Execute()
}
