package main

import "anniversary-backend/cmd"

func main() {
	cmd.Run()
}
