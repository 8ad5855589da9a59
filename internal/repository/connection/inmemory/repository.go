package inmemory

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/syncwatch/server/internal/repository/connection"
)

type session struct {
	conn    *websocket.Conn
	roomIds []string
}

// repo is the per-connection session record: it binds a websocket
// connection to its member id and to every room the member joined over
// it. It is the only place the disconnect path can learn which rooms a
// vanished connection belonged to.
type repo struct {
	connList map[*websocket.Conn]string
	idList   map[string]*session
	logger   *slog.Logger
	mu       sync.RWMutex
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		connList: make(map[*websocket.Conn]string),
		idList:   make(map[string]*session),
		logger:   logger,
	}
}

func (r *repo) Add(conn *websocket.Conn, memberId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.connList[conn] != "" || r.idList[memberId] != nil {
		return connection.ErrAlreadyExists
	}

	r.connList[conn] = memberId
	r.idList[memberId] = &session{conn: conn}

	return nil
}

// AddRoomId records a room the member joined. Re-joining the same room is
// a no-op; the list keeps join order.
func (r *repo) AddRoomId(memberId, roomId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.idList[memberId]
	if !ok {
		return connection.ErrNotFound
	}

	if !slices.Contains(s.roomIds, roomId) {
		s.roomIds = append(s.roomIds, roomId)
	}

	return nil
}

// GetRoomIds returns every room the member joined, in join order.
func (r *repo) GetRoomIds(memberId string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.idList[memberId]
	if !ok {
		return nil, connection.ErrNotFound
	}

	return slices.Clone(s.roomIds), nil
}

func (r *repo) GetConn(memberId string) (*websocket.Conn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.idList[memberId]
	if !ok {
		return nil, connection.ErrNotFound
	}

	return s.conn, nil
}

func (r *repo) GetMemberId(conn *websocket.Conn) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	memberId, ok := r.connList[conn]
	if !ok {
		return "", connection.ErrNotFound
	}

	return memberId, nil
}

func (r *repo) RemoveByMemberId(memberId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.idList[memberId]
	if !ok {
		return connection.ErrNotFound
	}

	delete(r.connList, s.conn)
	delete(r.idList, memberId)

	return nil
}

func (r *repo) RemoveByConn(conn *websocket.Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	memberId, ok := r.connList[conn]
	if !ok {
		return connection.ErrNotFound
	}

	delete(r.connList, conn)
	delete(r.idList, memberId)

	return nil
}
