package main

import "github.com/ValentinKolb/seqbank/cmd"

func main() {
	cmd.Execute()
}
