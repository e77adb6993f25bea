package main

import "github.com/dbsmedya/golake/cmd/golake/cmd"

func main() {
	cmd.Execute()
}
