package rpc

import (
	"fmt"
	"net/rpc"
	"strconv"
	"time"
)

type Client struct {
	client *rpc.Client
}

// NewClient connects to the RPC server on the given localhost port,
// retrying a few times while the server starts.
func NewClient(port int) (*Client, error) {
	var (
		client *rpc.Client
		err    error
	)
	const maxretries = 5
	for i := 0; i < maxretries; i++ {
		client, err = rpc.DialHTTP("tcp", "localhost:"+strconv.Itoa(port))
		if err == nil {
			break
		}
		modRPC.WarnZ("dial tcp failed").Error("err", err).Int("retry", i).End()
		time.Sleep(250 * time.Millisecond)
	}

	if client == nil {
		return nil, fmt.Errorf("dial failed max retries: %v", err)
	}

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	modRPC.DebugZ("closing rpc client").End()
	return c.client.Close()
}

func (c *Client) Stop() error      { return c.call("emu.Stop") }
func (c *Client) SaveDisks() error { return c.call("emu.SaveDisks") }

func (c *Client) IsReady() (bool, error) {
	var ready bool
	err := c.client.Call("emu.IsReady", &struct{}{}, &ready)
	return ready, err
}

func (c *Client) call(funcname string) error {
	if err := c.client.Call(funcname, &struct{}{}, &struct{}{}); err != nil {
		return fmt.Errorf("rpc %s: %w", funcname, err)
	}
	return nil
}
