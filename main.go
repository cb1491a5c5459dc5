package main

import "github.com/theirongolddev/costdeck/cmd"

func main() {
	cmd.Execute()
}
