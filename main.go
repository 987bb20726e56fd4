package main

import "github.com/llehouerou/streamwave/cmd"

func main() {
	cmd.Execute()
}
