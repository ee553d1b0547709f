// Package client 是聊天室的终端客户端：每行输入以 "<name>: <text>" 发送，
// 收到的每一行原样输出。
package client

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"
)

const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 8000
	DefaultName = "Anonymous"
)

type Client struct {
	conn net.Conn
	name string
	wmu  sync.Mutex
}

// Dial 连接服务器，name 为空时使用 DefaultName
func Dial(addr, name string, timeout time.Duration) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return New(conn, name), nil
}

func New(conn net.Conn, name string) *Client {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName
	}
	return &Client{conn: conn, name: name}
}

func (c *Client) Name() string { return c.name }

// Send 发送一行聊天内容，空行直接忽略
func (c *Client) Send(text string) error {
	text = strings.TrimRight(text, "\r\n")
	if text == "" {
		return nil
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_, err := io.WriteString(c.conn, c.name+": "+text+"\n")
	return err
}

// Receive 把服务器发来的每一行写到 w，连接关闭时返回 nil
func (c *Client) Receive(w io.Writer) error {
	sc := bufio.NewScanner(c.conn)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

// Chat 从 in 逐行读取并发送，直到 in 结束或发送失败
func (c *Client) Chat(in io.Reader) error {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if err := c.Send(sc.Text()); err != nil {
			return err
		}
	}
	return sc.Err()
}

func (c *Client) Close() error { return c.conn.Close() }

// Address 把用户输入的主机名与端口拼成拨号地址，空主机使用 DefaultHost
func Address(host string, port int) string {
	host = strings.TrimSpace(host)
	if host == "" {
		host = DefaultHost
	}
	if port <= 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(host, fmt.Sprint(port))
}
