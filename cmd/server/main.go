package main

import (
	"os"

	"quillpress/internal/logger"
	"quillpress/internal/transport/http"
)

func main() {
	if err := http.Run(); err != nil {
		logger.For("main").Error().Err(err).Msg("server failed")
		os.Exit(1)
	}
}
