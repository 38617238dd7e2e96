package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danmuck/wireline/internal/link"
	"github.com/danmuck/wireline/internal/logging"
)

func main() {
	logging.ConfigureRuntime()

	addr := flag.String("addr", "127.0.0.1:9100", "relay endpoint to dial")
	attempts := flag.Int("attempts", 5, "max dial attempts (0 = retry forever)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := link.DialWithRetry(ctx, *addr, link.DefaultConfig(), link.Handlers{
		OnPayload: func(_ *link.Conn, p link.Payload) {
			fmt.Printf("<< %s\n", p.Bytes())
		},
		OnPing: func(_ *link.Conn, rtt time.Duration) {
			fmt.Printf("-- ping %v\n", rtt)
		},
		OnDisconnect: func(_ *link.Conn, reason string) {
			fmt.Printf("-- disconnected: %s\n", reason)
		},
	}, *attempts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "wireline-emit: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-conn.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if line == "" {
				continue
			}
			if err := conn.BufferedSend([]byte(line)); err != nil {
				fmt.Fprintf(os.Stderr, "wireline-emit: send: %v\n", err)
				if errors.Is(err, link.ErrConnClosed) {
					return
				}
			}
		}
	}
}
