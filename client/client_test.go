package client

import (
	"bufio"
	"bytes"
	"net"
	"strings"
	"testing"
	"time"
)

func TestSendPrefixesName(t *testing.T) {
	server, conn := net.Pipe()
	defer server.Close()
	c := New(conn, "  Alice ")
	defer c.Close()

	go func() {
		_ = c.Send("")
		_ = c.Send("hi there\r\n")
	}()
	_ = server.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := bufio.NewReader(server).ReadString('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if line != "Alice: hi there\n" {
		t.Fatalf("got %q", line)
	}
}

func TestDefaultName(t *testing.T) {
	_, conn := net.Pipe()
	defer conn.Close()
	if got := New(conn, "").Name(); got != DefaultName {
		t.Fatalf("got %q", got)
	}
}

func TestReceivePrintsLinesUntilClose(t *testing.T) {
	server, conn := net.Pipe()
	c := New(conn, "Bob")

	go func() {
		_, _ = server.Write([]byte("Alice: hi\r\n\nCarol: yo\n"))
		_ = server.Close()
	}()
	var out bytes.Buffer
	if err := c.Receive(&out); err != nil {
		t.Fatalf("receive: %v", err)
	}
	if out.String() != "Alice: hi\nCarol: yo\n" {
		t.Fatalf("got %q", out.String())
	}
}

func TestChatSendsEachInputLine(t *testing.T) {
	server, conn := net.Pipe()
	defer server.Close()
	c := New(conn, "Dan")

	go func() {
		_ = c.Chat(strings.NewReader("one\n\ntwo\n"))
		_ = c.Close()
	}()
	var got []string
	sc := bufio.NewScanner(server)
	for sc.Scan() {
		got = append(got, sc.Text())
	}
	if len(got) != 2 || got[0] != "Dan: one" || got[1] != "Dan: two" {
		t.Fatalf("got %v", got)
	}
}

func TestAddress(t *testing.T) {
	cases := []struct {
		host string
		port int
		want string
	}{
		{"", 0, "127.0.0.1:8000"},
		{" 10.0.0.5 ", 8000, "10.0.0.5:8000"},
		{"chat.local", 9001, "chat.local:9001"},
		{"::1", 8000, "[::1]:8000"},
	}
	for _, tc := range cases {
		if got := Address(tc.host, tc.port); got != tc.want {
			t.Errorf("Address(%q, %d) = %q, want %q", tc.host, tc.port, got, tc.want)
		}
	}
}
