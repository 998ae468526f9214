package main

import (
	"log"

	"github.com/shibu-robo/shibu_drive/internal/app"
	"github.com/shibu-robo/shibu_drive/internal/config"
)

func main() {
	cfg := config.GetConfig()

	app, err := app.NewApp(cfg)
	if err != nil {
		log.Fatalf("error creating app - %s", err)
	}

	err = app.Start()
	if err != nil {
		log.Printf("drive shutdown with error: %s", err.Error())
	} else {
		log.Println("drive shutdown successfully")
	}
}
