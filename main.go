package main

import "github.com/papapumpkin/starmap/cmd"

func main() {
	cmd.Execute()
}
