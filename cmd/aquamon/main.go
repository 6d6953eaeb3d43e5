package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/calvinmclean/smartaqua/monitor"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configPath string
	portFlag   string
	baudFlag   int
	levelFlag  string

	historyLimit int
	historyKind  string

	mainCmd = &cobra.Command{
		Use:   "aquamon",
		Short: "Monitor and control a SmartAqua feeder over USB serial",
	}
	monitorCmd = &cobra.Command{
		Use:   "monitor",
		Short: "Read the device's diagnostics and forward stdin as commands",
		Args:  cobra.NoArgs,
		Run:   runMonitor,
	}
	sendCmd = &cobra.Command{
		Use:   "send COMMAND...",
		Short: "Send commands (feed, mode, reset, status, verbose, help, or raw flags) and exit",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSend,
	}
	portsCmd = &cobra.Command{
		Use:   "ports",
		Short: "List USB serial ports",
		Args:  cobra.NoArgs,
		Run:   runPorts,
	}
	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Print stored events as JSON lines, newest first",
		Args:  cobra.NoArgs,
		Run:   runHistory,
	}
)

func loadConfig(cmd *cobra.Command) monitor.Config {
	cfg, err := monitor.LoadConfig(configPath)
	if err != nil {
		log.Fatalln("load config:", err)
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.SerialPort = portFlag
	}
	if flags.Changed("baud") {
		cfg.BaudRate = baudFlag
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = levelFlag
	}

	setupLogging(cfg)
	return cfg
}

func setupLogging(cfg monitor.Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalln("log level:", err)
	}
	log.SetLevel(level)

	switch strings.ToLower(cfg.LogFormat) {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	log.SetOutput(os.Stderr)
}

func runMonitor(cmd *cobra.Command, args []string) {
	cfg := loadConfig(cmd)

	m, err := monitor.NewFromConfig(cfg)
	if err != nil {
		log.Fatalln("start monitor:", err)
	}
	defer m.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"port": cfg.SerialPort,
		"baud": cfg.BaudRate,
	}).Info("monitoring")

	err = m.Run(ctx, os.Stdin, os.Stdout)
	if err != nil {
		log.WithError(err).Error("monitor stopped")
	}
}

func runSend(cmd *cobra.Command, args []string) {
	cfg := loadConfig(cmd)
	if cfg.SerialPort == monitor.SerialPortNone {
		log.Fatalln("send: a serial port is required")
	}

	port, err := monitor.OpenSerial(cfg.SerialPort, cfg.BaudRate)
	if err != nil {
		log.Fatalln("open serial:", err)
	}

	m := monitor.New(port)
	defer m.Close()

	for _, command := range args {
		err := m.Send(command)
		if err != nil {
			log.Fatalln("send:", err)
		}
		log.WithField("command", command).Debug("sent")
	}
}

func runPorts(cmd *cobra.Command, args []string) {
	loadConfig(cmd)

	ports, err := monitor.GetSerialPorts()
	if err != nil {
		log.Fatalln("list ports:", err)
	}
	for _, p := range ports {
		fmt.Println(p)
	}
}

func runHistory(cmd *cobra.Command, args []string) {
	cfg := loadConfig(cmd)
	if cfg.HistoryPath == "" {
		log.Fatalln("history: history_path is not configured")
	}

	h, err := monitor.OpenHistory(cfg.HistoryPath)
	if err != nil {
		log.Fatalln("open history:", err)
	}
	defer h.Close()

	records, err := h.Recent(historyLimit, historyKind)
	if err != nil {
		log.Fatalln("read history:", err)
	}

	enc := json.NewEncoder(os.Stdout)
	for _, r := range records {
		err := enc.Encode(r)
		if err != nil {
			log.Fatalln("write history:", err)
		}
	}
}

func main() {
	mainCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "aquamon.toml", "Config path. A missing file uses defaults and AQUAMON_* variables")
	mainCmd.PersistentFlags().StringVarP(&portFlag, "port", "p", "", "Serial port. Empty picks the first USB serial port, None runs without a device")
	mainCmd.PersistentFlags().IntVarP(&baudFlag, "baud", "b", 115200, "Serial baud rate")
	mainCmd.PersistentFlags().StringVar(&levelFlag, "log-level", "info", "Log level")

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum records to print. 0 prints all")
	historyCmd.Flags().StringVarP(&historyKind, "kind", "k", "", "Only print status, feed, or fault records")

	mainCmd.AddCommand(monitorCmd, sendCmd, portsCmd, historyCmd)
	err := mainCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
