package main

import "github.com/envil-dev/envil/cmd/envil"

func main() {
	envil.Execute()
}
