package main

import "github.com/snowfork/ethereum-light-client/cmd"

func main() {
	cmd.Execute()
}
