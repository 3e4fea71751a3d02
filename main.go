package main

import "github.com/ValentinKolb/qdb/cmd"

func main() {
	cmd.Execute()
}
