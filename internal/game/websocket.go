package game

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"k8s.io/klog/v2"

	"github.com/scythe504/pp-backend/internal"
	"github.com/scythe504/pp-backend/internal/utils"
)

// maxMessageSize caps a single client frame. Going over it closes the
// connection, so it must fit the largest legal request in its most verbose
// encoding: a ClientBroadcast whose every character is sent as a \uXXXX
// escape (6 bytes per UTF-16 unit, 12 for an astral rune) plus the envelope.
// Anything below the cap is parsed and, if invalid, ignored.
const maxMessageSize = 128 * 1024

var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// =============================================================================
// WEBSOCKET CONNECTION HANDLING
// =============================================================================

// HandleWebSocket upgrades the request and joins the client to the room
// named by the roomId path variable. The user name and type come from the
// "user" and "userType" query parameters.
func HandleWebSocket(rooms *Rooms) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := mux.Vars(r)["roomId"]
		if roomID == "" {
			http.Error(w, "missing room id", http.StatusBadRequest)
			return
		}

		username := r.URL.Query().Get("user")
		if username == "" {
			username = utils.RandomUsername()
		}
		userType := internal.ParseUserType(r.URL.Query().Get("userType"))

		ws, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			klog.Errorf("[HandleWebSocket] Upgrade failed: %v", err)
			return
		}
		ws.SetReadLimit(maxMessageSize)

		conn := NewConnection(ws)
		// Liveness is tracked by the deadline sweep, not by read deadlines.
		_ = ws.SetReadDeadline(time.Time{})
		ws.SetPongHandler(func(string) error {
			rooms.ResetConnectionDeadline(conn)
			return nil
		})

		user := rooms.NewUser(conn, username, userType)
		if err := rooms.EnsureRoomContainsUser(roomID, user); err != nil {
			klog.Errorf("[HandleWebSocket] Room %s: could not add %s: %v", roomID, username, err)
			_ = conn.Close()
			return
		}

		go handleMessages(rooms, ws, conn, username)
	}
}

// handleMessages reads client requests until the socket fails, then removes
// the user.
func handleMessages(rooms *Rooms, ws *websocket.Conn, conn *WebsocketConnection, username string) {
	defer rooms.Remove(conn)
	klog.V(1).Infof("[handleMessages] Started for %s (%s)", username, conn.ID())

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				klog.Warningf("[handleMessages] Read error for %s: %v", username, err)
			} else {
				klog.V(1).Infof("[handleMessages] %s disconnected: %v", username, err)
			}
			return
		}

		request, err := internal.ParseUserRequest(data)
		if err != nil {
			klog.Warningf("[handleMessages] Ignoring request from %s: %v", username, err)
			continue
		}
		klog.V(2).Infof("[handleMessages] Received %s from %s", request.Type(), username)
		rooms.SubmitUserRequest(request, conn)
	}
}
