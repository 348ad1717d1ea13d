package main

import "sani/cmd"

func main() {
	cmd.Execute()
}
