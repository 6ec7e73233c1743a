package main

import "parkshare/cmd"

func main() {
	cmd.Run()
}
