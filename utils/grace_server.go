package utils

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	defaultReadTimeout  = 60 * time.Second
	defaultWriteTimeout = 60 * time.Second
	shutdownTimeout     = 30 * time.Second

	gracefulEnvKey   = "BLOGICUM_GRACEFUL"
	gracefulEnvValue = gracefulEnvKey + "=1"
	// inherited listener comes after stdin, stdout, stderr
	gracefulListenerFD = 3
)

// Server wraps http.Server with signal driven shutdown and zero-downtime restart.
// SIGINT/SIGTERM drain in-flight requests; SIGUSR2 forks a child that inherits the listener.
type Server struct {
	*http.Server

	listener   net.Listener
	inherited  bool
	signals    chan os.Signal
	shutdownCh chan struct{}
}

// NewServer creates a Server with timeouts and handler.
func NewServer(addr string, handler http.Handler, readTimeout, writeTimeout time.Duration) *Server {
	return &Server{
		Server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
			ReadHeaderTimeout: 10 * time.Second,
		},
		inherited:  os.Getenv(gracefulEnvKey) != "",
		signals:    make(chan os.Signal, 1),
		shutdownCh: make(chan struct{}),
	}
}

// ListenAndServe serves until a shutdown signal has been handled.
func (srv *Server) ListenAndServe() error {
	ln, err := srv.listen()
	if err != nil {
		return err
	}
	srv.listener = ln
	go srv.handleSignals()

	err = srv.Server.Serve(ln)
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	<-srv.shutdownCh
	return nil
}

func (srv *Server) listen() (net.Listener, error) {
	if srv.inherited {
		ln, err := net.FileListener(os.NewFile(gracefulListenerFD, ""))
		if err != nil {
			return nil, fmt.Errorf("inherit listener: %w", err)
		}
		return ln, nil
	}
	addr := srv.Addr
	if addr == "" {
		addr = ":http"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return ln, nil
}

func (srv *Server) handleSignals() {
	signal.Notify(srv.signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR2)
	for sig := range srv.signals {
		switch sig {
		case syscall.SIGINT, syscall.SIGTERM:
			Sugar.Infof("received %s, shutting down HTTP server", sig)
			srv.shutdown()
			return
		case syscall.SIGUSR2:
			pid, err := srv.fork()
			if err != nil {
				Sugar.Errorf("restart failed, continue serving: %v", err)
				continue
			}
			Sugar.Infof("started new process pid=%d, closing old server", pid)
			srv.shutdown()
			return
		}
	}
}

func (srv *Server) shutdown() {
	signal.Stop(srv.signals)
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		Sugar.Errorf("HTTP server shutdown error: %v", err)
	} else {
		Sugar.Info("HTTP server stopped")
	}
	close(srv.shutdownCh)
}

// fork starts a copy of this binary that inherits the listening socket.
func (srv *Server) fork() (int, error) {
	tcpLn, ok := srv.listener.(*net.TCPListener)
	if !ok {
		return 0, fmt.Errorf("listener is %T, not *net.TCPListener", srv.listener)
	}
	file, err := tcpLn.File()
	if err != nil {
		return 0, fmt.Errorf("listener file: %w", err)
	}
	defer file.Close()

	env := make([]string, 0, len(os.Environ())+1)
	for _, e := range os.Environ() {
		if e != gracefulEnvValue {
			env = append(env, e)
		}
	}
	env = append(env, gracefulEnvValue)

	return syscall.ForkExec(os.Args[0], os.Args, &syscall.ProcAttr{
		Env:   env,
		Files: []uintptr{os.Stdin.Fd(), os.Stdout.Fd(), os.Stderr.Fd(), file.Fd()},
	})
}

// GraceServer starts an HTTP server with graceful capabilities.
func GraceServer(addr string, handler http.Handler) error {
	return NewServer(addr, handler, defaultReadTimeout, defaultWriteTimeout).ListenAndServe()
}
