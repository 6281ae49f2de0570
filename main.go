package main

import "github.com/voyantlabs/voyant/cmd"

func main() {
	cmd.Execute()
}
