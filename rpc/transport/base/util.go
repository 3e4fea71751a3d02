package base

import (
	"github.com/ValentinKolb/qdb/rpc/common"
	"net"
)

// socketBufferConn is implemented by *net.TCPConn and *net.UnixConn
type socketBufferConn interface {
	SetReadBuffer(bytes int) error
	SetWriteBuffer(bytes int) error
}

// ApplySocketConf sets the OS socket buffer sizes of a connection if configured.
// Connections without socket buffers are left unchanged.
func ApplySocketConf(conn net.Conn, config common.SocketConf) error {
	sc, ok := conn.(socketBufferConn)
	if !ok {
		return nil
	}

	// Set socket write buffer size if configured
	if config.WriteBufferSize > 0 {
		if err := sc.SetWriteBuffer(config.WriteBufferSize); err != nil {
			return err
		}
	}

	// Set socket read buffer size if configured
	if config.ReadBufferSize > 0 {
		if err := sc.SetReadBuffer(config.ReadBufferSize); err != nil {
			return err
		}
	}

	return nil
}
