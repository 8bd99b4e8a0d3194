package main

import "github.com/agentic-research/splash/cmd"

func main() {
	cmd.Execute()
}
