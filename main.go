package main

import "github.com/dpereira/kalshi-poly-arb/cmd"

func main() {
	cmd.Execute()
}
