//go:build tinygo

//go:generate tinygo flash -target=pico

package main

import (
	"machine"
	"strconv"
	"time"
)

var (
	adcRef machine.ADC
	adcIn  machine.ADC
	uart   = machine.Serial

	// Burst storage, interleaved [ref, in, ref, in, ...]
	burst [MAX_BURST_SAMPLES]uint16

	// Serial buffer for reading command lines
	serialBuffer [16]byte
	serialPos    int
)

func main() {
	initPWM()

	PIN_ADC_REF.Configure(machine.PinConfig{Mode: machine.PinInput})
	PIN_ADC_IN.Configure(machine.PinConfig{Mode: machine.PinInput})

	machine.InitADC()
	adcRef = machine.ADC{Pin: PIN_ADC_REF}
	adcIn = machine.ADC{Pin: PIN_ADC_IN}
	adcRef.Configure(machine.ADCConfig{Resolution: ADC_RESOLUTION})
	adcIn.Configure(machine.ADCConfig{Resolution: ADC_RESOLUTION})

	for {
		processSerial()
		time.Sleep(100 * time.Microsecond)
	}
}

// initPWM drives the excitation square wave on PIN_PWM at PWM_FREQ_HZ with
// a DUTY_CYCLE_PERCENT duty cycle. Runs continuously from power-on.
func initPWM() {
	PIN_PWM.Configure(machine.PinConfig{Mode: machine.PinPWM})

	pwm := machine.PWM0 // GP1 is PWM slice 0, channel B
	pwm.Configure(machine.PWMConfig{
		Period: uint64(1e9 / PWM_FREQ_HZ), // nanoseconds
	})

	ch, err := pwm.Channel(PIN_PWM)
	if err != nil {
		return
	}
	pwm.Set(ch, pwm.Top()*DUTY_CYCLE_PERCENT/100)
}

// processSerial accumulates command bytes and dispatches complete lines.
// The only command is "B <count>": capture and stream one burst.
func processSerial() {
	for uart.Buffered() > 0 {
		b, err := uart.ReadByte()
		if err != nil {
			return
		}

		if b == '\n' || b == '\r' {
			if serialPos > 0 {
				handleCommand(string(serialBuffer[:serialPos]))
				serialPos = 0
			}
			continue
		}

		if serialPos < len(serialBuffer) {
			serialBuffer[serialPos] = b
			serialPos++
		}
	}
}

func handleCommand(line string) {
	if len(line) < 3 || line[0] != 'B' || line[1] != ' ' {
		return
	}

	count, err := strconv.Atoi(line[2:])
	if err != nil || count <= 0 || count > MAX_BURST_SAMPLES {
		return
	}

	captureBurst(count)
	streamBurst(count)
}

// captureBurst fills the burst buffer end-to-end, alternating the two ADC
// channels in a tight loop so the interleave spacing stays uniform.
func captureBurst(count int) {
	for i := 0; i < count; i += 2 {
		burst[i] = adcRef.Get() >> 4 // 16-bit reading down to 12 bits
		if i+1 < count {
			burst[i+1] = adcIn.Get() >> 4
		}
	}
}

// streamBurst writes the captured samples as comma-separated decimal lines
// followed by the block terminator.
func streamBurst(count int) {
	for i := 0; i < count; i++ {
		print(burst[i])
		if (i+1)%VALUES_PER_LINE == 0 || i == count-1 {
			println()
		} else {
			print(",")
		}
	}
	println("E")
}
