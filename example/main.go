// This example program prints every decoded ADS-B message to the console
// until Ctrl+C is pressed.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go1090track/internal/frame"
	"go1090track/internal/message"
	"go1090track/internal/rtlsdr"
)

func printADSB(msg *message.Message) {
	if msg.MsgType == 17 || msg.MsgType == 18 {
		fmt.Printf("DF%d addr=%06X type=%d squawk=%04d alt=%.0f lat=%.5f lon=%.5f\n",
			msg.MsgType, msg.Addr, msg.METype, msg.Squawk.Value,
			msg.AltitudeBaro.Value, msg.DecodedLat.Value, msg.DecodedLon.Value)
	}
}

func main() {
	sigs := make(chan os.Signal, 1)
	done := make(chan bool, 1)

	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		fmt.Println()
		fmt.Println(sig)
		done <- true
	}()

	dec := frame.NewDecoder()

	stopFunc, e := rtlsdr.StartReceive(
		"rtl_adsb", // path to the rtl_adsb-style demodulator binary
		func(f rtlsdr.Frame) {
			msg, err := dec.Decode(f[:], time.Now().UnixMilli(), message.SourceADSB)
			if err != nil {
				return
			}
			printADSB(msg)
		})

	if e != nil {
		fmt.Println("error: ", e)
	}

	fmt.Println("awaiting signal")
	<-done
	stopFunc()
	fmt.Println("exiting")
}
