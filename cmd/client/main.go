package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hongjun500/chat-relay/client"
)

func prompt(r *bufio.Reader, label string) string {
	fmt.Print(label)
	s, _ := r.ReadString('\n')
	return strings.TrimSpace(s)
}

func main() {
	var (
		host = flag.String("host", "", "server address; prompt when empty")
		port = flag.Int("port", client.DefaultPort, "server port")
		name = flag.String("name", "", "display name; prompt when empty")
	)
	flag.Parse()

	stdin := bufio.NewReader(os.Stdin)
	if *host == "" {
		*host = prompt(stdin, "Enter server IP (or press Enter for localhost): ")
	}
	addr := client.Address(*host, *port)
	fmt.Printf("Connecting to %s...\n", addr)

	if *name == "" {
		*name = prompt(stdin, "Enter your name: ")
	}
	c, err := client.Dial(addr, *name, 5*time.Second)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Connection failed:", err)
		os.Exit(1)
	}
	defer c.Close()

	fmt.Println("\nConnected to chat! Type your messages:")
	fmt.Println("=====================================")

	go func() {
		if err := c.Receive(os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, "receive error:", err)
		}
		fmt.Println("\nDisconnected from server")
		os.Exit(0)
	}()

	if err := c.Chat(stdin); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to send message:", err)
		os.Exit(1)
	}
}
