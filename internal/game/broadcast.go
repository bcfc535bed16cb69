package game

import (
	"encoding/json"

	"k8s.io/klog/v2"

	"github.com/scythe504/pp-backend/internal"
)

// =============================================================================
// BROADCASTING & MESSAGING
// =============================================================================

// broadcastLocked queues a personal snapshot of room for every user.
// Connection.Send only queues, so this never waits on the network even
// though mu is held. A connection that cannot take the snapshot is evicted
// once the lock is released.
func (r *Rooms) broadcastLocked(room internal.Room) {
	sent := 0
	for _, user := range room.Users {
		if user.Conn == nil {
			continue
		}
		data, err := json.Marshal(internal.NewRoomDto(room, &user))
		if err != nil {
			klog.Errorf("[Broadcast][Room:%s] Failed to encode state for %s: %v", room.ID, user.Username, err)
			continue
		}
		if err := user.Conn.Send(data); err != nil {
			klog.Warningf("[Broadcast][Room:%s] Failed for user %s: %v", room.ID, user.Username, err)
			go r.Remove(user.Conn)
			continue
		}
		sent++
	}
	klog.V(1).Infof("[Broadcast][Room:%s] Queued version %d for %d/%d users", room.ID, room.Version, sent, len(room.Users))
}
