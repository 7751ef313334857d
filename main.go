package main

import "github.com/kodflow/indexwatch/cmd"

func main() {
	cmd.Execute()
}
