package main

import "github.com/sadopc/pomotask/cmd"

func main() {
	cmd.Execute()
}
