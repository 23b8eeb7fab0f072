package main

import (
	"cloupeer.io/bcicar/cmd/bcicar-relay/app"
)

func main() {
	app.NewApp().Run()
}
