package main

import "github.com/klytics/sheetmerge/cmd"

func main() {
	cmd.Execute()
}
