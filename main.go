package main

import "github.com/llehouerou/alephplay/cmd"

func main() {
	cmd.Execute()
}
