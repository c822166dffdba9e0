package main

import "github.com/mvp-joe/tracemap/internal/cli"

func main() {
	cli.Execute()
}
