package main

import "docdb-go/internal/cli"

func main() {
	cli.Execute()
}
