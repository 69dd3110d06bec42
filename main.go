package main

import "github.com/docseek/docseek/cmd"

func main() {
	cmd.Execute()
}
