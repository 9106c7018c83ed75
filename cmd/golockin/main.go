package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jtarim/golockin/pkg/adc"
	"github.com/jtarim/golockin/pkg/capture"
	"github.com/jtarim/golockin/pkg/config"
	"github.com/jtarim/golockin/pkg/impedance"
	"github.com/jtarim/golockin/pkg/lockin"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.InfoLevel)

	var (
		portFlag       = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag     = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag       = flag.Bool("mock", false, "Use mocked device instead of serial port")
		iterationsFlag = flag.Int("n", 0, "Bursts to average per measurement (overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *iterationsFlag > 0 {
		cfg.Measurement.Iterations = *iterationsFlag
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var dev adc.Device
	if *mockFlag {
		log.Info().Msg("using mocked acquisition device")
		dev = adc.NewMock(cfg)
	} else {
		log.Info().Str("port", cfg.Serial.Port).Int("baud", cfg.Serial.BaudRate).Msg("opening acquisition device")
		dev = adc.New(cfg.Serial.Port, cfg.Serial.BaudRate)
	}
	if err := dev.Connect(); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to acquisition device")
	}
	defer dev.Close()

	buf, err := capture.Configure(cfg.Acquisition.SampleRate, cfg.Excitation.Frequency)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure capture buffer")
	}
	log.Info().
		Int("capacity", buf.Capacity()).
		Int("sample_rate", cfg.Acquisition.SampleRate).
		Int("excitation_hz", cfg.Excitation.Frequency).
		Msg("capture buffer configured")

	sampler := capture.NewSampler(dev, buf, cfg.Acquisition.CaptureTimeout)
	meter := lockin.New(cfg, sampler)
	meter.OnProgress(func(done, total int) {
		fmt.Printf("\r%s", lockin.FormatProgress(done, total))
	})
	calc := impedance.Calculator{
		Series:    cfg.Divider.SeriesResistance,
		Reference: cfg.Divider.ReferenceResistance,
	}

	stdin := bufio.NewScanner(os.Stdin)
	iterations := cfg.Measurement.Iterations

	fmt.Println("Leave the DUT terminals open for calibration, then press Enter.")
	if !waitLine(stdin) {
		return
	}

	open, err := meter.Measure(ctx, iterations)
	if err != nil {
		log.Fatal().Err(err).Msg("open-circuit calibration failed")
	}
	fmt.Println()
	fmt.Printf("Open-circuit vector: %v (response %s)\n", open, impedance.ToComplex(open))

	for {
		fmt.Println("Connect the DUT and press Enter to measure (q to quit).")
		if !waitLine(stdin) {
			return
		}
		if line := strings.TrimSpace(stdin.Text()); line == "q" || line == "quit" {
			return
		}

		dut, err := meter.Measure(ctx, iterations)
		fmt.Println()
		if err != nil {
			if errors.Is(err, lockin.ErrNoBursts) {
				log.Warn().Msg("no phase lock in any burst, check the reference wiring")
				continue
			}
			log.Fatal().Err(err).Msg("measurement failed")
		}
		fmt.Printf("DUT vector: %v (response %s)\n", dut, impedance.ToComplex(dut))

		z, err := calc.Compute(open, dut)
		if err != nil {
			if errors.Is(err, impedance.ErrIndeterminate) {
				log.Warn().Msg("impedance indeterminate, DUT looks like an open circuit")
				continue
			}
			log.Fatal().Err(err).Msg("impedance computation failed")
		}
		fmt.Printf("Z = %s  (|Z| = %.2f Ohm, phase = %.1f deg)\n", z, z.Magnitude(), z.Phase()*180/math.Pi)
	}
}

// waitLine blocks for one line of operator input; false means stdin closed.
func waitLine(stdin *bufio.Scanner) bool {
	return stdin.Scan()
}
