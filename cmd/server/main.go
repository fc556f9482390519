package main

import "perfengine/internal/app/server"

func main() {
	server.Run()
}
