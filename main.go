package main

import "showup-backend/cmd"

func main() {
	cmd.Run()
}
