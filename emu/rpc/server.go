package rpc

import (
	"io"
	"net"
	"net/http"
	"net/rpc"
	"strconv"
)

type Emu interface {
	Stop()
	SaveDisks() error
}

type emuProxy struct {
	emu Emu
}

func (ep *emuProxy) Stop(_, _ *struct{}) error      { ep.emu.Stop(); return nil }
func (ep *emuProxy) SaveDisks(_, _ *struct{}) error { return ep.emu.SaveDisks() }

func (ep *emuProxy) IsReady(_ *struct{}, reply *bool) error {
	*reply = true
	return nil
}

type Server struct {
	io.Closer
}

// NewServer starts serving RPC requests for emu over HTTP on the given
// localhost port.
func NewServer(port int, emu Emu) (*Server, error) {
	srv := rpc.NewServer()
	if err := srv.RegisterName("emu", &emuProxy{emu: emu}); err != nil {
		panic("failed to register RPC server: " + err.Error())
	}

	mux := http.NewServeMux()
	mux.Handle(rpc.DefaultRPCPath, srv)

	l, err := net.Listen("tcp", "localhost:"+strconv.Itoa(port))
	if err != nil {
		return nil, err
	}

	modRPC.InfoZ("rpc server listening").Int("port", port).End()
	go http.Serve(l, mux)
	return &Server{Closer: l}, nil
}
