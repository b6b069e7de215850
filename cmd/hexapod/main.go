// Command hexapod runs the walking-robot control daemon: it drives the
// servo controller over serial and exposes the intent API over HTTP.
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/hexapod-robotics/hexapod/internal/config"
	"github.com/hexapod-robotics/hexapod/internal/log"
	"github.com/hexapod-robotics/hexapod/pkg/control"
	"github.com/hexapod-robotics/hexapod/pkg/hexapod"
	"github.com/hexapod-robotics/hexapod/pkg/lights"
	"github.com/hexapod-robotics/hexapod/pkg/maestro"
	"github.com/hexapod-robotics/hexapod/pkg/web"
)

func main() {
	configPath := flag.String("config", "hexapod.yaml", "Path to the YAML configuration")
	serialPort := flag.String("serial", "", "Serial device override (also HEXAPOD_SERIAL env)")
	addr := flag.String("addr", "", "HTTP listen address override")
	simulate := flag.Bool("simulate", false, "Run without hardware attached")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("configuration", "err", err)
		os.Exit(1)
	}
	log.Init(cfg.LogLevel)

	port := cfg.SerialPort()
	if *serialPort != "" {
		port = *serialPort
	}
	if *addr != "" {
		cfg.WebAddr = *addr
	}

	var ctrl hexapod.ServoController
	if *simulate {
		log.Info("running in simulation mode")
		ctrl = hexapod.NewSimulator()
	} else {
		m, err := maestro.Open(port, cfg.Serial.Baud)
		if err != nil {
			log.Error("servo controller", "port", port, "err", err)
			os.Exit(1)
		}
		defer m.Close()
		ctrl = m
	}

	cal, err := hexapod.LoadCalibration(cfg.CalibrationFile)
	if err != nil {
		log.Error("calibration", "file", cfg.CalibrationFile, "err", err)
		os.Exit(1)
	}

	hex, err := hexapod.New(ctrl, cfg.HexapodParams(), cal)
	if err != nil {
		log.Error("hexapod init", "err", err)
		os.Exit(1)
	}

	leds := lights.LogHandler{}
	dispatcher := control.NewDispatcher(hex, leds)

	server := web.NewServer(cfg.WebAddr, hex, dispatcher)
	server.StartAsync()

	log.Info("hexapod daemon up", "serial", port, "addr", cfg.WebAddr, "simulate", *simulate)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("shutting down")
	dispatcher.Stop()
	if err := hex.DeactivateAllServos(make(chan struct{})); err != nil {
		log.Warn("servo shutdown", "err", err)
	}
	if err := server.Shutdown(); err != nil {
		log.Warn("web shutdown", "err", err)
	}
}
