package main

import "github.com/Taichi-iskw/ytshelf/cmd"

func main() {
	cmd.Execute()
}
