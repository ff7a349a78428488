package main

import "github.com/kasuboski/imdbidx/cmd"

func main() {
	cmd.Execute()
}
