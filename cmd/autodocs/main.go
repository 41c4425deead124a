package main

import "github.com/mvp-joe/autodocs/internal/cli"

func main() {
	cli.Execute()
}
