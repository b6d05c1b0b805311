package main

import "github.com/Mohsinsiddi/icon-cli/cmd"

func main() {
	cmd.Execute()
}
