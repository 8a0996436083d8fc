package main

import "github.com/Tiliavir/daybook/cmd"

func main() {
	cmd.Execute()
}
