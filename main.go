package main

import "github.com/iksnae/acni-chat/cmd"

func main() {
	cmd.Execute()
}
