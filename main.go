package main

import "github.com/ryclarke/scriptcheck/cmd"

func main() {
	cmd.Execute()
}
