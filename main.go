package main

import "github.com/soluchok/tgquery/pkg/cmd/root"

func main() {
	root.Execute()
}
