package main

import "github.com/Mohsinsiddi/allowctl/cmd"

func main() {
	cmd.Execute()
}
