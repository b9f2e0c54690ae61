package main

import "github.com/s-0-u-l-z/SubdomainNotifier/internal/cli"

func main() {
	cli.Execute()
}
