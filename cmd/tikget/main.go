package main

import "github.com/guiyumin/tikget/internal/cli"

func main() {
	cli.Execute()
}
