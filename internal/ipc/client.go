package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) call(method string, req, resp any) error {
	return c.client.Call(serviceName+"."+method, req, resp)
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.call("Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests the daemon to shut down.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.call("Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StreamerList returns registered streamers with live state.
func (c *Client) StreamerList() (*StreamerListResponse, error) {
	var resp StreamerListResponse
	if err := c.call("StreamerList", StreamerListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StreamerAdd registers a streamer by name.
func (c *Client) StreamerAdd(name string) (*StreamerAddResponse, error) {
	var resp StreamerAddResponse
	if err := c.call("StreamerAdd", StreamerAddRequest{Name: name}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StreamerRemove removes a streamer by name.
func (c *Client) StreamerRemove(name string) (*StreamerRemoveResponse, error) {
	var resp StreamerRemoveResponse
	if err := c.call("StreamerRemove", StreamerRemoveRequest{Name: name}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.call("TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
