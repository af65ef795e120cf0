package main

import "github.com/materials-graph/crystprep/cmd"

func main() {
	cmd.Execute()
}
