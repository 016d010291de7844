package server

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"resourcedb/src/auth"
	"resourcedb/src/directors"
	"resourcedb/src/helpers"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// ConnectionPrefix starts the credentials line a client sends first when
// authentication is enabled: resourcedb://<user>:<password>
const ConnectionPrefix = "resourcedb://"

const Welcome = "Welcome to resourcedb. Type help for the command list."

// Executor runs one command line.
type Executor interface {
	Execute(command string) (*directors.CommandResponse, error)
}

// Authenticator checks the credentials of a connection.
type Authenticator interface {
	VerifyCredentials(username, password string) (bool, *auth.User, error)
}

// Server is the line oriented TCP front end of a store.
type Server struct {
	Host              string
	Port              int
	Listener          net.Listener
	AuthEnabled       bool
	ActiveConnections map[string]*Connection
	Running           bool

	executor Executor
	users    Authenticator
	logger   *zap.SugaredLogger
	mu       sync.Mutex
	wg       sync.WaitGroup
}

// Connection is one client session.
type Connection struct {
	ID         string
	Conn       net.Conn
	Reader     *bufio.Reader
	Writer     *bufio.Writer
	User       string
	Authorized bool
	LastActive time.Time
	Logger     *zap.SugaredLogger
}

// ConnectionString holds the parsed credentials line.
type ConnectionString struct {
	Username string
	Password string
}

// NewServer returns a server for executor. users may be nil when
// authentication is disabled.
func NewServer(host string, port int, executor Executor, users Authenticator, authEnabled bool, logger *zap.SugaredLogger) (*Server, error) {
	if authEnabled && users == nil {
		return nil, errors.New("authentication is enabled but no user store was given")
	}

	return &Server{
		Host:              host,
		Port:              port,
		AuthEnabled:       authEnabled,
		ActiveConnections: make(map[string]*Connection),
		executor:          executor,
		users:             users,
		logger:            logger,
	}, nil
}

// Start begins listening for incoming connections
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.Host, fmt.Sprint(s.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("error starting server on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.Listener = listener
	s.Running = true
	s.mu.Unlock()

	s.logger.Infow("resourcedb server listening", "address", listener.Addr().String())

	s.wg.Add(1)
	go s.acceptConnections()

	return nil
}

// Addr is the address the server listens on, nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Listener == nil {
		return nil
	}
	return s.Listener.Addr()
}

func (s *Server) running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Running
}

// Stop closes the listener and every active connection, then waits for the
// connection handlers to finish.
func (s *Server) Stop() error {
	s.mu.Lock()
	s.Running = false
	for _, conn := range s.ActiveConnections {
		conn.Conn.Close()
	}
	listener := s.Listener
	s.mu.Unlock()

	var err error
	if listener != nil {
		err = listener.Close()
	}

	s.wg.Wait()

	s.logger.Info("Server shutdown complete")
	s.logger.Sync()

	return err
}

// acceptConnections handles incoming connection requests
func (s *Server) acceptConnections() {
	defer s.wg.Done()

	for {
		conn, err := s.Listener.Accept()
		if err != nil {
			if !s.running() {
				return
			}
			s.logger.Errorw("Error accepting connection", "error", err)
			continue
		}

		s.logger.Infow("New connection received", "remoteAddr", conn.RemoteAddr().String())

		s.wg.Add(1)
		go func(c net.Conn) {
			defer s.wg.Done()
			s.handleConnection(c)
		}(conn)
	}
}

// handleConnection processes a single client connection, one command per line.
func (s *Server) handleConnection(conn net.Conn) {
	connID := generateConnectionID()
	connection := &Connection{
		ID:         connID,
		Conn:       conn,
		Reader:     bufio.NewReader(conn),
		Writer:     bufio.NewWriter(conn),
		Authorized: !s.AuthEnabled,
		LastActive: time.Now(),
		Logger:     s.logger.With("connID", connID, "remoteAddr", conn.RemoteAddr().String()),
	}

	s.mu.Lock()
	if !s.Running {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.ActiveConnections[connID] = connection
	s.mu.Unlock()

	defer func() {
		conn.Close()
		s.mu.Lock()
		delete(s.ActiveConnections, connID)
		s.mu.Unlock()
		connection.Logger.Info("Connection closed")
	}()

	writer := connection.Writer
	writer.WriteString(Welcome + "\n")
	writer.Flush()

	scanner := bufio.NewScanner(connection.Reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		connection.LastActive = time.Now()

		if strings.HasPrefix(line, ConnectionPrefix) {
			if !s.authorize(connection, line) {
				return
			}
			continue
		}

		if !connection.Authorized {
			sendError(writer, "Authentication required")
			return
		}

		if !s.processCommand(connection, line) {
			return
		}
	}

	if err := scanner.Err(); err != nil && s.running() {
		connection.Logger.Warnw("Error reading from client", "error", err)
	}
}

// authorize handles a credentials line. It reports whether the session
// goes on.
func (s *Server) authorize(connection *Connection, line string) bool {
	connStr, err := parseConnectionString(line)
	if err != nil {
		connection.Logger.Warnw("Error parsing connection string", "error", err)
		sendError(connection.Writer, fmt.Sprintf("Invalid connection string: %v", err))
		return false
	}

	logger := connection.Logger.With("user", connStr.Username)
	if s.AuthEnabled {
		ok, user, err := s.users.VerifyCredentials(connStr.Username, connStr.Password)
		if err != nil || !ok {
			connection.Logger.Warnw("Authentication failed", "user", connStr.Username)
			sendError(connection.Writer, "Authentication failed")
			return false
		}
		logger = logger.With("userID", user.UserID)
	}

	connection.Authorized = true
	connection.User = connStr.Username
	connection.Logger = logger
	connection.Logger.Infow("Client authenticated")

	sendSuccess(connection.Writer, "Authentication successful")
	return true
}

// processCommand runs one command and writes the reply. It reports whether
// the session goes on.
func (s *Server) processCommand(connection *Connection, command string) bool {
	start := time.Now()
	resp, err := s.executor.Execute(command)
	elapsed := time.Since(start)

	if err != nil {
		if directors.IsCommandError(err) {
			connection.Logger.Debugw("Command rejected", "command", command, "error", err)
		} else {
			connection.Logger.Errorw("Command failed", "command", command, "error", err)
		}
		sendError(connection.Writer, err.Error())
		return true
	}

	if resp.Exit {
		sendSuccess(connection.Writer, "Goodbye")
		return false
	}

	connection.Logger.Debugw("Command processed", "command", command, "results", resp.ResultCount, "elapsed", elapsed)
	sendResult(connection.Writer, resp, elapsed)
	return true
}

// parseConnectionString reads resourcedb://<user>:<password>. The password
// may itself contain colons.
func parseConnectionString(connStr string) (ConnectionString, error) {
	var result ConnectionString

	rest := strings.TrimPrefix(connStr, ConnectionPrefix)
	username, password, found := strings.Cut(rest, ":")
	if !found {
		return result, errors.New("expected resourcedb://<user>:<password>")
	}
	if username == "" {
		return result, errors.New("user name cannot be empty")
	}

	result.Username = username
	result.Password = password
	return result, nil
}

func writeJSON(writer *bufio.Writer, response interface{}) {
	jsonResponse, err := json.Marshal(response)
	if err != nil {
		jsonResponse = []byte(`{"status":"error","message":"unable to encode response"}`)
	}
	writer.Write(jsonResponse)
	writer.WriteByte('\n')
	writer.Flush()
}

// Helper functions
func sendError(writer *bufio.Writer, message string) {
	writeJSON(writer, map[string]interface{}{
		"status":  "error",
		"message": message,
	})
}

func sendSuccess(writer *bufio.Writer, message string) {
	writeJSON(writer, map[string]interface{}{
		"status":  "success",
		"message": message,
	})
}

func sendResult(writer *bufio.Writer, resp *directors.CommandResponse, elapsed time.Duration) {
	writeJSON(writer, map[string]interface{}{
		"status":      "success",
		"resultCount": resp.ResultCount,
		"result":      resp.Result,
		"elapsedMs":   float64(elapsed.Microseconds()) / 1000,
	})
}

func generateConnectionID() string {
	return "conn_" + helpers.GenerateUUID()
}
