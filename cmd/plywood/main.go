package main

import "github.com/rickaym/plywood/cmd/plywood/cmd"

func main() {
	cmd.Execute()
}
