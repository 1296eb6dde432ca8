package jsonrpc

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
)

// Conn reads and writes one JSON document per line.
type Conn struct {
	reader *bufio.Reader

	writeMu sync.Mutex
	writer  io.Writer
}

// NewConn creates a connection over r and w.
func NewConn(r io.Reader, w io.Writer) *Conn {
	return &Conn{reader: bufio.NewReader(r), writer: w}
}

// Write encodes v as a single line.
func (c *Conn) Write(v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	line = append(line, '\n')

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if _, err := c.writer.Write(line); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

// ReadLine returns the next non-blank line without its terminator. It returns
// io.EOF once the peer has closed its end with nothing left to read.
func (c *Conn) ReadLine() ([]byte, error) {
	for {
		line, err := c.reader.ReadBytes('\n')
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) > 0 {
			return trimmed, nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("failed to read message: %w", err)
		}
	}
}

// ReadRequest reads the next request. A line that is not a request yields a
// *ErrorInfo carrying the matching JSON-RPC code.
func (c *Conn) ReadRequest() (*Request, error) {
	line, err := c.ReadLine()
	if err != nil {
		return nil, err
	}
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return nil, &ErrorInfo{Code: CodeParseError, Message: fmt.Sprintf("parse error: %v", err)}
	}
	if req.JSONRPC != Version || req.Method == "" {
		return &req, &ErrorInfo{Code: CodeInvalidRequest, Message: "invalid request"}
	}
	return &req, nil
}

// ReadResponse reads the next response.
func (c *Conn) ReadResponse() (*Response, error) {
	line, err := c.ReadLine()
	if err != nil {
		return nil, err
	}
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("malformed response %q: %w", truncate(line, 120), err)
	}
	if resp.JSONRPC != Version {
		return nil, fmt.Errorf("response is not JSON-RPC %s: %q", Version, truncate(line, 120))
	}
	return &resp, nil
}

func decode(raw json.RawMessage, v any) error {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	return decoder.Decode(v)
}

func truncate(line []byte, limit int) string {
	if len(line) <= limit {
		return string(line)
	}
	return string(line[:limit]) + "..."
}
