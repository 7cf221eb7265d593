// Package main is the entry point of the UART bridge.
// It initializes the logger, loads the configuration, connects to the MQTT
// broker, opens the serial port and runs the bridge until interrupted.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"UartBridge/internal/bridge"
	"UartBridge/internal/broker"
	"UartBridge/internal/model"
	"UartBridge/internal/util"
)

func main() {
	util.SetupLogger()

	cfgPath := flag.String("c", "configs/config.yml", "path to configuration file")
	flag.Parse()

	log.Printf("[Main] Using config: %s", *cfgPath)

	cfg, err := model.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	bus, err := broker.Connect(broker.Options{
		URL:            cfg.Broker.URL,
		ClientID:       cfg.Broker.ClientID,
		Username:       cfg.Broker.Username,
		Password:       cfg.Broker.Password,
		KeepAlive:      time.Duration(cfg.Broker.KeepAliveS) * time.Second,
		ConnectTimeout: time.Duration(cfg.Broker.ConnectTimeoutMs) * time.Millisecond,
		QoS:            byte(cfg.Broker.QoS),
	})
	if err != nil {
		log.Fatalf("failed to connect broker: %v", err)
	}
	defer bus.Close()

	br, err := bridge.New(cfg, bus)
	if err != nil {
		log.Fatalf("failed to create bridge: %v", err)
	}

	if err := br.Start(); err != nil {
		log.Fatalf("failed to start bridge: %v", err)
	}

	// wait for Ctrl+C or SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("[Main] Shutting down bridge...")
	br.Stop()
	log.Println("[Main] Bridge stopped cleanly.")
}
