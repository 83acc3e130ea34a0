package main

import "soundmap/cmd"

func main() {
	cmd.Execute()
}
