// Copyright (c) 2020 Ham, Yeongtaek
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package rtlsdr wraps an external `rtl_adsb`-style demodulator binary as a
// subprocess, parsing its `*HEX...;` text stream into raw Mode S frame
// bytes ready for internal/frame to decode.
package rtlsdr

import (
	"bufio"
	"fmt"
	"os/exec"
	"strconv"
)

// Frame is one raw Mode S frame as reported by the external demodulator:
// up to 14 bytes (112 bits), short frames simply using fewer of them.
type Frame [14]byte

// FrameHandler is called once per parsed frame.
type FrameHandler func(Frame)

// StartReceive launches execPath (e.g. `rtl_adsb`) and streams its stdout
// through the parser, invoking handler for every well-formed frame. Only
// 112-bit frames (30-character lines) are parsed; 56-bit frames are
// skipped. The returned function stops the subprocess.
func StartReceive(execPath string, handler FrameHandler) (stop func(), err error) {
	cmd := exec.Command(execPath)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("rtlsdr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("rtlsdr: %w", err)
	}

	go func() {
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			line := scanner.Text()
			if f, ok := parseLine(line); ok {
				handler(f)
			}
		}
		_ = cmd.Wait()
	}()

	return func() {
		_ = cmd.Process.Kill()
	}, nil
}

// parseLine parses one line of `rtl_adsb`-style output:
//
//	*112233445566778899AABBCCDDEE;
func parseLine(hexstr string) (Frame, bool) {
	var f Frame
	if !isValidFrameText(hexstr) {
		return f, false
	}
	for i := 0; i < 14; i++ {
		f[i] = parseHexByte(hexstr[1+i*2 : 3+i*2])
	}
	return f, true
}

func parseHexByte(s string) byte {
	n, _ := strconv.ParseUint(s, 16, 8)
	return byte(n)
}

func isValidFrameText(hexstr string) bool {
	if len(hexstr) != 30 {
		return false
	}
	if hexstr[0] != '*' || hexstr[29] != ';' {
		return false
	}
	return true
}
