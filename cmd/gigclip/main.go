package main

import "github.com/gigclip/gigclip/internal/cli"

func main() {
	cli.Execute()
}
