// Command scope-probe sends framed messages to an MCU over a serial port
// and prints the framed replies.
package main

import (
	"bufio"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"scopeblock/host/serial"
	"scopeblock/protocol"
)

var (
	device  = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud    = flag.Int("baud", 250000, "Baud rate (ignored for USB CDC)")
	timeout = flag.Int("timeout", 100, "Read timeout in milliseconds")
	verbose = flag.Bool("verbose", false, "Print raw frames")
)

func main() {
	flag.Parse()

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud
	cfg.ReadTimeout = *timeout

	fmt.Printf("Connecting to MCU on %s...\n", cfg.Device)
	err := serial.WithPort(cfg, func(port serial.Port) error {
		fmt.Println("Connected. Enter hex payloads (type 'help' for commands, 'quit' to exit):")
		return repl(port)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func repl(port serial.Port) error {
	scanner := bufio.NewScanner(os.Stdin)
	var seq uint8

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "quit", "exit", "q":
			fmt.Println("Goodbye!")
			return nil
		case "help", "?":
			printHelp()
			continue
		}

		payload, err := hex.DecodeString(strings.ReplaceAll(line, " ", ""))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: bad hex payload: %v\n", err)
			continue
		}

		if err := send(port, seq, payload); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		seq = (seq + 1) & protocol.MessageSeqMask
	}

	return scanner.Err()
}

func send(port serial.Port, seq uint8, payload []byte) error {
	out := protocol.NewScratchOutput()
	err := protocol.EncodeFrame(out, seq, func(o protocol.OutputBuffer) error {
		o.Output(payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	if *verbose {
		fmt.Printf("-> % X\n", out.Result())
	}

	resp := make([]byte, protocol.MessageMax)
	n, err := serial.Exchange(port, out.Result(), resp)
	if err != nil {
		return err
	}
	// Multi-frame replies (timing dumps) arrive over several reads
	for n < len(resp) {
		m, err := port.Read(resp[n:])
		if m == 0 || err != nil {
			if err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("read: %w", err)
			}
			break
		}
		n += m
	}
	if n == 0 {
		fmt.Println("(no reply)")
		return nil
	}
	if *verbose {
		fmt.Printf("<- % X\n", resp[:n])
	}

	in := protocol.NewSliceInputBuffer(resp[:n])
	bad := protocol.ReceiveFrames(in, func(replySeq uint8, reply []byte) {
		fmt.Printf("seq=%d payload=% X\n", replySeq, reply)
	})
	if bad > 0 {
		fmt.Fprintf(os.Stderr, "Warning: skipped %d malformed frames\n", bad)
	}
	if in.Available() > 0 {
		return fmt.Errorf("decode reply: %d bytes of incomplete frame", in.Available())
	}
	return nil
}

func printHelp() {
	fmt.Println("\nAvailable commands:")
	fmt.Println("  <hex bytes>    - Send a framed payload, e.g. '01 02 0a'")
	fmt.Println("                   00 ..: echo, 01 cc cc dd rr: queue steps,")
	fmt.Println("                   02: dump timing ring, 03: stop")
	fmt.Println("  help           - Show this help message")
	fmt.Println("  quit/exit/q    - Exit the program")
	fmt.Println()
}
