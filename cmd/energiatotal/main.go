package main

import "github.com/Drakn-Sub/energia-total/cmd"

func main() {
	cmd.Execute()
}
