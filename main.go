package main

import "snapopedia-cli/cmd"

func main() {
	cmd.Execute()
}
