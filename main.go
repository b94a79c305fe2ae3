package main

import (
	"log/slog"

	"github.com/BioHazard786/duo/cmd"
	"github.com/BioHazard786/duo/internal/logging"
)

func main() {
	logging.Init(slog.LevelInfo)
	cmd.Execute()
}
