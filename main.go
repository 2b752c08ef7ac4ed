package main

import "github.com/Kumkum-Mishra/CleanForge/cmd"

func main() {
	cmd.Execute()
}
