package main

import "github.com/shaharia-lab/sesrelay/cmd"

func main() {
	cmd.Execute()
}
