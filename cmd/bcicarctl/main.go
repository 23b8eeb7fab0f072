package main

import (
	"cloupeer.io/bcicar/cmd/bcicarctl/app"
)

func main() {
	app.NewApp().Run()
}
