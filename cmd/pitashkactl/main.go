package main

import "github.com/VadimVthvPro/PRO-pitashka/internal/cli"

func main() {
	cli.Execute()
}
