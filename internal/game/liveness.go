package game

import (
	"context"
	"time"

	"k8s.io/klog/v2"

	"github.com/scythe504/pp-backend/internal"
)

// =============================================================================
// LIVENESS
// =============================================================================

// LivenessConfig schedules the two sweeps. Each sweep runs first after its
// delay and then once per interval.
type LivenessConfig struct {
	PingInterval     time.Duration
	PingDelay        time.Duration
	DeadlineInterval time.Duration
	DeadlineDelay    time.Duration
}

func DefaultLivenessConfig() LivenessConfig {
	return LivenessConfig{
		PingInterval:     internal.PingInterval,
		PingDelay:        internal.PingInterval,
		DeadlineInterval: internal.DeadlineInterval,
		DeadlineDelay:    internal.DeadlineInterval,
	}
}

// StartLiveness runs the ping and deadline sweeps until ctx is done.
func (r *Rooms) StartLiveness(ctx context.Context, cfg LivenessConfig) {
	go r.runPeriodic(ctx, "SendPings", cfg.PingDelay, cfg.PingInterval, r.SendPings)
	go r.runPeriodic(ctx, "RemoveUnresponsiveUsers", cfg.DeadlineDelay, cfg.DeadlineInterval, r.RemoveUnresponsiveUsers)
}

func (r *Rooms) runPeriodic(ctx context.Context, name string, delay, interval time.Duration, task func()) {
	klog.Infof("[%s] scheduled every %v after %v", name, interval, delay)

	timer := r.clock.Timer(delay)
	select {
	case <-ctx.Done():
		timer.Stop()
		return
	case <-timer.C:
	}
	task()

	ticker := r.clock.Ticker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			klog.Infof("[%s] stopped", name)
			return
		case <-ticker.C:
			task()
		}
	}
}

// SendPings pings every connection and removes the ones that can't be
// pinged. Pongs come back through ResetConnectionDeadline.
func (r *Rooms) SendPings() {
	r.mu.Lock()
	defer r.mu.Unlock()

	var failed []internal.Connection
	pinged := 0
	for _, room := range r.rooms {
		for _, user := range room.Users {
			if err := user.Conn.Ping(); err != nil {
				klog.Warningf("[SendPings] Room %s: could not ping %s: %v", room.ID, user.Username, err)
				failed = append(failed, user.Conn)
				continue
			}
			pinged++
		}
	}
	klog.V(1).Infof("[SendPings] pinged %d connections, %d failed", pinged, len(failed))

	for _, conn := range failed {
		r.removeLocked(conn)
	}
}

// RemoveUnresponsiveUsers evicts every user whose connection deadline has
// passed, i.e. who did not answer a ping for a whole timeout period.
func (r *Rooms) RemoveUnresponsiveUsers() {
	now := r.clock.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []internal.User
	for _, room := range r.rooms {
		for _, user := range room.Users {
			if user.ConnectionDeadline.Before(now) {
				expired = append(expired, user)
			}
		}
	}

	for _, user := range expired {
		klog.Infof("[RemoveUnresponsiveUsers] Kick user %s: did not respond to ping", user.Username)
		r.removeLocked(user.Conn)
	}
}
