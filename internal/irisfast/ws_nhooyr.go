package irisfast

import (
    "context"
    "net/http"
    "strings"
    "sync"
    "time"

    "github.com/park285/RPS-KakaoTalk-bot/internal/obslog"
    "go.uber.org/zap"
    "nhooyr.io/websocket"
    "nhooyr.io/websocket/wsjson"
)

type callbackEntry struct {
    id       int
    callback MessageCallback
}

type stateCallbackEntry struct {
    id       int
    callback StateCallback
}

// WebSocket consumes the Iris event stream and fans each message out to registered callbacks.
// It reconnects with backoff after read or ping failures.
type WebSocket struct {
    wsURL string

    conn   *websocket.Conn
    state  WebSocketState
    stateM sync.RWMutex
    writeM sync.Mutex

    msgCbs   []callbackEntry
    stateCbs []stateCallbackEntry
    nextCbID int
    cbM      sync.RWMutex

    maxReconnectAttempts int
    pingInterval         time.Duration

    stopCh   chan struct{}
    stopOnce sync.Once
    wg       sync.WaitGroup

    rootCtx    context.Context
    rootCancel context.CancelFunc

    headerProvider HeaderProvider
}

func NewWebSocket(wsURL string, maxReconnectAttempts int) *WebSocket {
    rootCtx, rootCancel := context.WithCancel(context.Background())
    return &WebSocket{
        wsURL:                wsURL,
        state:                WSStateDisconnected,
        maxReconnectAttempts: maxReconnectAttempts,
        pingInterval:         30 * time.Second,
        stopCh:               make(chan struct{}),
        rootCtx:              rootCtx,
        rootCancel:           rootCancel,
    }
}

// SetHeaderProvider injects headers into the WS handshake.
func (ws *WebSocket) SetHeaderProvider(h HeaderProvider) {
    ws.headerProvider = h
}

func (ws *WebSocket) Connect(ctx context.Context) error {
    switch ws.State() {
    case WSStateConnected, WSStateConnecting:
        return nil
    }
    ws.setState(WSStateConnecting)

    conn, err := ws.dial(ctx)
    if err != nil {
        ws.setState(WSStateFailed)
        ws.scheduleReconnect()
        return err
    }
    ws.attach(conn)
    return nil
}

func (ws *WebSocket) dial(ctx context.Context) (*websocket.Conn, error) {
    dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
    defer cancel()
    conn, _, err := websocket.Dial(dialCtx, ws.wsURL, &websocket.DialOptions{
        CompressionMode: websocket.CompressionNoContextTakeover,
        HTTPHeader:      ws.buildHeaders(),
    })
    return conn, err
}

func (ws *WebSocket) attach(conn *websocket.Conn) {
    ws.stateM.Lock()
    ws.conn = conn
    ws.stateM.Unlock()
    ws.setState(WSStateConnected)

    ws.wg.Add(2)
    go ws.listen(conn)
    go ws.pingLoop(conn)
}

func (ws *WebSocket) listen(conn *websocket.Conn) {
    defer ws.wg.Done()
    for {
        var msg Message
        if err := wsjson.Read(ws.rootCtx, conn, &msg); err != nil {
            if ws.isStopping() {
                return
            }
            obslog.L().Warn("ws_read_error", zap.Error(err))
            ws.dropConn(conn, "reconnect")
            return
        }

        ws.cbM.RLock()
        callbacks := make([]callbackEntry, len(ws.msgCbs))
        copy(callbacks, ws.msgCbs)
        ws.cbM.RUnlock()
        for _, entry := range callbacks {
            if entry.callback != nil {
                entry.callback(&msg)
            }
        }
    }
}

func (ws *WebSocket) pingLoop(conn *websocket.Conn) {
    defer ws.wg.Done()
    t := time.NewTicker(ws.pingInterval)
    defer t.Stop()
    failures := 0
    for {
        select {
        case <-ws.stopCh:
            return
        case <-ws.rootCtx.Done():
            return
        case <-t.C:
            if ws.currentConn() != conn {
                return
            }
            ctx, cancel := context.WithTimeout(ws.rootCtx, 3*time.Second)
            err := conn.Ping(ctx)
            cancel()
            if err == nil {
                failures = 0
                continue
            }
            failures++
            if failures >= 2 {
                obslog.L().Warn("ws_ping_failure", zap.Error(err))
                ws.dropConn(conn, "ping failure")
                return
            }
        }
    }
}

// dropConn closes conn once and schedules a reconnect if it is still the active connection.
func (ws *WebSocket) dropConn(conn *websocket.Conn, reason string) {
    ws.stateM.Lock()
    active := ws.conn == conn
    if active {
        ws.conn = nil
    }
    ws.stateM.Unlock()
    if !active {
        return
    }
    _ = conn.Close(websocket.StatusGoingAway, reason)
    if ws.isStopping() {
        return
    }
    ws.setState(WSStateDisconnected)
    ws.scheduleReconnect()
}

func (ws *WebSocket) scheduleReconnect() {
    if ws.maxReconnectAttempts <= 0 {
        return
    }
    ws.setState(WSStateReconnecting)

    go func() {
        for attempt := 1; attempt <= ws.maxReconnectAttempts; attempt++ {
            select {
            case <-ws.stopCh:
                return
            case <-time.After(backoffDuration(attempt)):
            }
            conn, err := ws.dial(ws.rootCtx)
            if err != nil {
                obslog.L().Warn("ws_reconnect_failed", zap.Int("attempt", attempt), zap.Error(err))
                continue
            }
            ws.attach(conn)
            return
        }
        ws.setState(WSStateFailed)
    }()
}

func (ws *WebSocket) OnMessage(cb MessageCallback) int {
    ws.cbM.Lock()
    defer ws.cbM.Unlock()
    ws.nextCbID++
    ws.msgCbs = append(ws.msgCbs, callbackEntry{id: ws.nextCbID, callback: cb})
    return ws.nextCbID
}

func (ws *WebSocket) RemoveMessageCallback(id int) {
    ws.cbM.Lock()
    defer ws.cbM.Unlock()
    for i, cb := range ws.msgCbs {
        if cb.id == id {
            ws.msgCbs = append(ws.msgCbs[:i], ws.msgCbs[i+1:]...)
            break
        }
    }
}

func (ws *WebSocket) OnStateChange(cb StateCallback) int {
    ws.cbM.Lock()
    defer ws.cbM.Unlock()
    ws.nextCbID++
    ws.stateCbs = append(ws.stateCbs, stateCallbackEntry{id: ws.nextCbID, callback: cb})
    return ws.nextCbID
}

func (ws *WebSocket) RemoveStateCallback(id int) {
    ws.cbM.Lock()
    defer ws.cbM.Unlock()
    for i, cb := range ws.stateCbs {
        if cb.id == id {
            ws.stateCbs = append(ws.stateCbs[:i], ws.stateCbs[i+1:]...)
            break
        }
    }
}

func (ws *WebSocket) State() WebSocketState {
    ws.stateM.RLock()
    defer ws.stateM.RUnlock()
    return ws.state
}

func (ws *WebSocket) currentConn() *websocket.Conn {
    ws.stateM.RLock()
    defer ws.stateM.RUnlock()
    return ws.conn
}

func (ws *WebSocket) setState(state WebSocketState) {
    ws.stateM.Lock()
    ws.state = state
    ws.stateM.Unlock()

    ws.cbM.RLock()
    callbacks := make([]stateCallbackEntry, len(ws.stateCbs))
    copy(callbacks, ws.stateCbs)
    ws.cbM.RUnlock()
    for _, entry := range callbacks {
        if entry.callback != nil {
            entry.callback(state)
        }
    }
}

// WriteJSON serializes frames; wsjson.Write is not safe across goroutines.
func (ws *WebSocket) WriteJSON(ctx context.Context, v any) error {
    conn := ws.currentConn()
    if conn == nil || ws.State() != WSStateConnected {
        return errNotConnected
    }
    ws.writeM.Lock()
    defer ws.writeM.Unlock()
    return wsjson.Write(ctx, conn, v)
}

func (ws *WebSocket) Close(ctx context.Context) error {
    ws.stopOnce.Do(func() { close(ws.stopCh) })
    if conn := ws.currentConn(); conn != nil {
        ws.stateM.Lock()
        ws.conn = nil
        ws.stateM.Unlock()
        _ = conn.Close(websocket.StatusNormalClosure, "close")
    }
    ws.rootCancel()

    done := make(chan struct{})
    go func() {
        ws.wg.Wait()
        close(done)
    }()
    select {
    case <-ctx.Done():
        return ctx.Err()
    case <-done:
        ws.setState(WSStateDisconnected)
        return nil
    }
}

func (ws *WebSocket) isStopping() bool {
    select {
    case <-ws.stopCh:
        return true
    default:
        return false
    }
}

func (ws *WebSocket) buildHeaders() http.Header {
    hdr := http.Header{}
    if ws.headerProvider == nil {
        return hdr
    }
    for k, v := range ws.headerProvider() {
        if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
            continue
        }
        hdr.Set(k, v)
    }
    return hdr
}
