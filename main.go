package main

import "github.com/arvindk/medcompare/cmd"

func main() {
	cmd.Execute()
}
