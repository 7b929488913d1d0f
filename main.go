/*
	Copyright 2023 Markus Papenbrock
*/

package main

import "github.com/mpapenbr/greenflag/cmd"

func main() {
	cmd.Execute()
}
