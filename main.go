package main

import "nathanbeddoewebdev/gcpm/cmd"

func main() {
	cmd.Execute()
}
