package main

import "github.com/devicelab-dev/device-doctor/pkg/cli"

func main() {
	cli.Execute()
}
