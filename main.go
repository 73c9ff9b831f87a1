package main

import "github.com/KaramelBytes/equity-cli/cmd"

func main() {
	cmd.Execute()
}
