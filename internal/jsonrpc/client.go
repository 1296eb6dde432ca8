package jsonrpc

import (
	"fmt"
	"io"
)

// Client sends requests one at a time and waits for each answer.
type Client struct {
	conn   *Conn
	nextID int64
}

// NewClient creates a client reading responses from r and writing requests to w.
func NewClient(r io.Reader, w io.Writer) *Client {
	return &Client{conn: NewConn(r, w)}
}

// Call invokes method and decodes the result into result when it is not nil.
// An error response is returned as *ErrorInfo.
func (c *Client) Call(method string, params, result any) error {
	c.nextID++
	req, err := NewRequest(c.nextID, method, params)
	if err != nil {
		return err
	}
	if err := c.conn.Write(req); err != nil {
		return fmt.Errorf("failed to send %s: %w", method, err)
	}

	resp, err := c.conn.ReadResponse()
	if err != nil {
		if err == io.EOF {
			return fmt.Errorf("connection closed while waiting for %s: %w", method, io.ErrUnexpectedEOF)
		}
		return fmt.Errorf("failed to receive %s: %w", method, err)
	}
	if resp.ID != req.ID {
		return fmt.Errorf("response id %d does not match %s request id %d", resp.ID, method, req.ID)
	}
	if resp.Error != nil {
		return resp.Error
	}
	if result == nil || len(resp.Result) == 0 {
		return nil
	}
	if err := decode(resp.Result, result); err != nil {
		return fmt.Errorf("invalid %s result: %w", method, err)
	}
	return nil
}
