package main

import (
	"cloupeer.io/bcicar/cmd/bcicar-agent/app"
)

func main() {
	app.NewApp().Run()
}
