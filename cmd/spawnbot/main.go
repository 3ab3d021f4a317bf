package main

import "spawnbot/cmd/spawnbot/cmd"

func main() {
	cmd.Execute()
}
