package socketio

import (
	"net/http"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"
	socket "github.com/zishang520/socket.io/socket"
	"gorm.io/gorm"

	"github.com/courseflow/courseflow-server/internal/features/user"
	jwtutil "github.com/courseflow/courseflow-server/internal/utils/jwt"
)

// Server wraps the Socket.IO server used to push progress events to students.
// Every authenticated socket joins a per-user room so emits can target a
// single student across all of their connections.
type Server struct {
	io        *socket.Server
	db        *gorm.DB
	logger    *slog.Logger
	jwtSecret string

	heartbeatStop chan struct{}
	heartbeatWG   sync.WaitGroup

	connMutex   sync.RWMutex
	connections map[string]*socket.Socket
}

// NewServer creates a new Socket.IO server.
func NewServer(db *gorm.DB, logger *slog.Logger, jwtSecret string) (*Server, error) {
	opts := socket.DefaultServerOptions()
	opts.SetPingTimeout(60 * time.Second)
	opts.SetPingInterval(25 * time.Second)
	opts.SetServeClient(false)
	opts.SetPath("/socket.io")

	s := &Server{
		io:          socket.NewServer(nil, opts),
		db:          db,
		logger:      logger,
		jwtSecret:   jwtSecret,
		connections: make(map[string]*socket.Socket),
	}

	s.io.Use(s.connectionMiddleware)
	s.io.On("connection", func(args ...any) {
		sock, ok := args[0].(*socket.Socket)
		if !ok {
			s.logger.Error("unexpected connection payload", slog.Any("payload", args))
			return
		}
		s.handleConnection(sock)
	})

	s.startHeartbeat()

	return s, nil
}

// GetHandler returns the HTTP handler for Socket.IO.
func (s *Server) GetHandler() http.Handler {
	return s.io.ServeHandler(nil)
}

// Close shuts down the Socket.IO server.
func (s *Server) Close() error {
	if stop := s.heartbeatStop; stop != nil {
		close(stop)
		s.heartbeatWG.Wait()
		s.heartbeatStop = nil
	}

	done := make(chan struct{})
	s.io.Close(func() {
		close(done)
	})

	<-done
	return nil
}

// EmitProgressApproved notifies a student that an instructor approved one of
// their watch reports.
func (s *Server) EmitProgressApproved(userID uuid.UUID, payload interface{}) {
	s.emitToUser(userID, "progressApproved", payload)
}

// EmitVideoUnlocked notifies a student that the next video in a course is now
// available.
func (s *Server) EmitVideoUnlocked(userID uuid.UUID, payload interface{}) {
	s.emitToUser(userID, "videoUnlocked", payload)
}

func (s *Server) emitToUser(userID uuid.UUID, event string, payload interface{}) {
	if err := s.io.To(userRoom(userID.String())).Emit(event, payload); err != nil {
		s.logger.Warn("failed to emit event",
			slog.String("event", event),
			slog.String("userId", userID.String()),
			slog.String("error", err.Error()))
	}
}

func (s *Server) connectionMiddleware(sock *socket.Socket, next func(*socket.ExtendedError)) {
	token := s.extractToken(sock)
	if token == "" {
		s.logger.Warn("socket connection rejected: missing token")
		next(socket.NewExtendedError("missing authentication token", map[string]any{"code": "MISSING_TOKEN"}))
		return
	}

	claims, err := jwtutil.VerifyToken(token, s.jwtSecret)
	if err != nil {
		s.logger.Warn("socket connection rejected: invalid token", slog.String("error", err.Error()))
		next(socket.NewExtendedError("invalid token", map[string]any{"code": "INVALID_TOKEN"}))
		return
	}

	var userData user.User
	if err := s.db.First(&userData, "id = ?", claims.UserID).Error; err != nil {
		s.logger.Warn("socket connection rejected: user not found", slog.Any("userId", claims.UserID), slog.String("error", err.Error()))
		next(socket.NewExtendedError("user not found", map[string]any{"code": "USER_NOT_FOUND"}))
		return
	}

	sock.SetData(&userData)
	next(nil)
}

func (s *Server) handleConnection(sock *socket.Socket) {
	userData := s.getUserFromSocket(sock)
	if userData == nil {
		s.logger.Error("connection established without user context")
		sock.Disconnect(true)
		return
	}

	connID := string(sock.Id())

	s.connMutex.Lock()
	s.connections[connID] = sock
	s.connMutex.Unlock()

	s.logger.Info("WebSocket connected",
		slog.String("user", userData.FullName),
		slog.String("userId", userData.ID.String()),
		slog.String("connId", connID),
	)

	if err := sock.Emit("connectionConfirmed", map[string]any{
		"userId":    userData.ID.String(),
		"userName":  userData.FullName,
		"userType":  userData.UserType,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		s.logger.Warn("failed to emit connection confirmation", slog.String("error", err.Error()))
	}

	sock.Join(userRoom(userData.ID.String()))

	sock.On("disconnect", func(args ...any) {
		s.connMutex.Lock()
		delete(s.connections, connID)
		s.connMutex.Unlock()

		s.logger.Info("WebSocket disconnected",
			slog.String("userId", userData.ID.String()),
			slog.String("connId", connID),
		)
	})
}

func (s *Server) startHeartbeat() {
	s.heartbeatStop = make(chan struct{})
	s.heartbeatWG.Add(1)

	go func() {
		defer s.heartbeatWG.Done()
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.sendHeartbeat()
			case <-s.heartbeatStop:
				return
			}
		}
	}()
}

func (s *Server) sendHeartbeat() {
	timestamp := time.Now().Unix()

	s.connMutex.RLock()
	defer s.connMutex.RUnlock()

	for id, sock := range s.connections {
		if err := sock.Emit("ping", timestamp); err != nil {
			s.logger.Debug("heartbeat emit failed", slog.String("connId", id), slog.String("error", err.Error()))
		}
	}
}

func (s *Server) getUserFromSocket(sock *socket.Socket) *user.User {
	if sock == nil {
		return nil
	}
	if data, ok := sock.Data().(*user.User); ok {
		return data
	}
	return nil
}

func (s *Server) extractToken(sock *socket.Socket) string {
	if sock == nil {
		return ""
	}

	if conn := sock.Conn(); conn != nil {
		if ctx := conn.Request(); ctx != nil {
			if req := ctx.Request(); req != nil {
				if token := req.URL.Query().Get("token"); token != "" {
					return token
				}
			}
			if query := ctx.Query(); query != nil {
				if token, ok := query.Get("token"); ok && token != "" {
					return token
				}
			}
		}
	}

	if hs := sock.Handshake(); hs != nil {
		if hs.Query != nil {
			if token, ok := hs.Query.Get("token"); ok && token != "" {
				return token
			}
		}
		if authMap, ok := hs.Auth.(map[string]any); ok {
			if token, ok := authMap["token"].(string); ok {
				return token
			}
		}
	}

	return ""
}

func userRoom(userID string) socket.Room {
	return socket.Room("user_" + userID)
}
